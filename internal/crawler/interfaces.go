package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Sink persists a single record.
type Sink interface {
	Name() string
	Write(ctx context.Context, record Record) error
}

// RecordExtractor turns one page body into records.
type RecordExtractor interface {
	Extract(pageURL string, body []byte) ([]Record, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}
