package crawler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotAvailable replaces any field whose markup fragment is missing.
const NotAvailable = "not available"

// Record is one product entry extracted from a listing page.
type Record struct {
	ItemName        string `json:"item_name" bson:"item_name" db:"item_name"`
	Description     string `json:"description" bson:"description" db:"description"`
	NewPrice        string `json:"new_price" bson:"new_price" db:"new_price"`
	DiscountPercent string `json:"discount_percent" bson:"discount_percent" db:"discount_percent"`
	OldPrice        string `json:"old_price" bson:"old_price" db:"old_price"`
	LinkPage        string `json:"link_page" bson:"link_page" db:"link_page"`
}

// CacheKey derives the cache key for the record under namespace.
func (r Record) CacheKey(namespace string) string {
	return namespace + ":" + r.ItemName
}

// CacheValue renders the record as JSON text for the cache, keys in field
// order.
func (r Record) CacheValue() (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(payload), nil
}

// CSVFields returns the flat-file columns in output order.
func (r Record) CSVFields() []string {
	return []string{
		r.ItemName,
		r.Description,
		r.NewPrice,
		r.DiscountPercent,
		r.OldPrice,
		r.LinkPage,
	}
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Summary reports what a crawl run did.
type Summary struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Pages        int
	PagesFailed  int
	Records      int
	SinkFailures map[string]int
}
