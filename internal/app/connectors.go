package app

import (
	"context"

	"github.com/JakeFAU/hasaki-crawler/internal/config"
	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
	mongostore "github.com/JakeFAU/hasaki-crawler/internal/storage/mongo"
	mysqlstore "github.com/JakeFAU/hasaki-crawler/internal/storage/mysql"
	"github.com/JakeFAU/hasaki-crawler/internal/storage/postgres"
	rediscache "github.com/JakeFAU/hasaki-crawler/internal/storage/redis"
)

// DefaultConnectors lists the network sinks in write order: document store,
// cache, then the two relational stores.
func DefaultConnectors(cfg config.Config) []Connector {
	return []Connector{
		{
			Name: mongostore.SinkName,
			Connect: func(ctx context.Context) (crawler.Sink, CloseFunc, error) {
				s, err := mongostore.Connect(ctx, mongostore.Config{
					URI:        cfg.Mongo.URI,
					Database:   cfg.Mongo.Database,
					Collection: cfg.Mongo.Collection,
				})
				if err != nil {
					return nil, nil, err
				}
				return s, s.Close, nil
			},
		},
		{
			Name: rediscache.SinkName,
			Connect: func(ctx context.Context) (crawler.Sink, CloseFunc, error) {
				c, err := rediscache.Connect(ctx, rediscache.Config{
					Host:      cfg.Redis.Host,
					Port:      cfg.Redis.Port,
					Namespace: cfg.Redis.Namespace,
					TTL:       cfg.Redis.TTL,
				})
				if err != nil {
					return nil, nil, err
				}
				return c, func(context.Context) error { return c.Close() }, nil
			},
		},
		{
			Name: postgres.SinkName,
			Connect: func(ctx context.Context) (crawler.Sink, CloseFunc, error) {
				s, err := postgres.Connect(ctx, postgres.Config(cfg.Postgres))
				if err != nil {
					return nil, nil, err
				}
				return s, func(context.Context) error { s.Close(); return nil }, nil
			},
		},
		{
			Name: mysqlstore.SinkName,
			Connect: func(ctx context.Context) (crawler.Sink, CloseFunc, error) {
				s, err := mysqlstore.Connect(ctx, mysqlstore.Config(cfg.MySQL))
				if err != nil {
					return nil, nil, err
				}
				return s, func(context.Context) error { return s.Close() }, nil
			},
		},
	}
}
