// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler   CrawlerConfig     `mapstructure:"crawler"`
	Selectors crawler.Selectors `mapstructure:"selectors"`
	Output    OutputConfig      `mapstructure:"output"`
	Mongo     MongoConfig       `mapstructure:"mongo"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Postgres  SQLConfig         `mapstructure:"postgres"`
	MySQL     SQLConfig         `mapstructure:"mysql"`
	Bootstrap BootstrapConfig   `mapstructure:"bootstrap"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

// CrawlerConfig governs which pages are visited and how they are requested.
type CrawlerConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	PageParam string        `mapstructure:"page_param"`
	Pages     int           `mapstructure:"pages"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// OutputConfig locates the flat file.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// MongoConfig addresses the document collection.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// RedisConfig addresses the cache and sets the entry policy.
type RedisConfig struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Namespace string        `mapstructure:"namespace"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// SQLConfig addresses one relational record table.
type SQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
}

// BootstrapConfig controls sink connection retries.
type BootstrapConfig struct {
	Attempts     int           `mapstructure:"attempts"`
	Delay        time.Duration `mapstructure:"delay"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// MetricsConfig enables the /metrics listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig selects the zap encoder and level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type setting struct {
	key string
	env string
	def any
}

// settings is the flat key, environment variable and default table.
var settings = []setting{
	{"crawler.base_url", "CRAWLER_BASE_URL", "https://hasaki.vn/danh-muc/suc-khoe-lam-dep-c3.html"},
	{"crawler.page_param", "CRAWLER_PAGE_PARAM", crawler.DefaultPageParam},
	{"crawler.pages", "CRAWLER_PAGES", 189},
	{"crawler.user_agent", "CRAWLER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"},
	{"crawler.timeout", "CRAWLER_TIMEOUT", "30s"},
	{"output.path", "OUTPUT_PATH", "dataset_hasaki.csv"},
	{"mongo.uri", "MONGO_URI", "mongodb://mongodb:27017/"},
	{"mongo.database", "MONGO_DATABASE", "hasaki_database"},
	{"mongo.collection", "MONGO_COLLECTION", "hasaki_items"},
	{"redis.host", "REDIS_HOST", "redis"},
	{"redis.port", "REDIS_PORT", 6379},
	{"redis.namespace", "REDIS_NAMESPACE", "hasaki"},
	{"redis.ttl", "REDIS_TTL", "1h"},
	{"postgres.host", "POSTGRES_HOST", "postgres"},
	{"postgres.port", "POSTGRES_PORT", 5432},
	{"postgres.user", "POSTGRES_USER", "postgres"},
	{"postgres.password", "POSTGRES_PASSWORD", "postgres"},
	{"postgres.database", "POSTGRES_DB", "hasaki_db"},
	{"postgres.table", "POSTGRES_TABLE", "hasaki_items"},
	{"mysql.host", "MYSQL_HOST", "mysql"},
	{"mysql.port", "MYSQL_PORT", 3306},
	{"mysql.user", "MYSQL_USER", "hasaki"},
	{"mysql.password", "MYSQL_PASSWORD", "hasaki"},
	{"mysql.database", "MYSQL_DATABASE", "hasaki_db"},
	{"mysql.table", "MYSQL_TABLE", "hasaki_items"},
	{"bootstrap.attempts", "BOOTSTRAP_ATTEMPTS", 5},
	{"bootstrap.delay", "BOOTSTRAP_DELAY", "5s"},
	{"bootstrap.startup_delay", "BOOTSTRAP_STARTUP_DELAY", "5s"},
	{"metrics.addr", "METRICS_ADDR", ""},
	{"logging.development", "LOGGING_DEVELOPMENT", true},
	{"logging.level", "LOG_LEVEL", "info"},
}

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Load builds a Config from defaults, an optional config file and the
// environment (including a .env file when present). Environment variables
// take precedence over the file, which takes precedence over defaults.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadDotEnv exports variables from a .env file without overriding values
// already present in the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler.base_url is required")
	}
	if c.Crawler.Pages <= 0 {
		return fmt.Errorf("crawler.pages must be > 0")
	}
	if c.Crawler.Timeout <= 0 {
		return fmt.Errorf("crawler.timeout must be > 0")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}
	if c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be > 0")
	}
	if c.Bootstrap.Attempts <= 0 {
		return fmt.Errorf("bootstrap.attempts must be > 0")
	}
	if c.Bootstrap.Delay < 0 || c.Bootstrap.StartupDelay < 0 {
		return fmt.Errorf("bootstrap delays must not be negative")
	}
	if !validTableName.MatchString(c.Postgres.Table) {
		return fmt.Errorf("postgres.table %q is not a valid identifier", c.Postgres.Table)
	}
	if !validTableName.MatchString(c.MySQL.Table) {
		return fmt.Errorf("mysql.table %q is not a valid identifier", c.MySQL.Table)
	}
	return nil
}
