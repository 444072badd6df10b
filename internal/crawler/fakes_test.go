package crawler

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memorySink struct {
	mu      sync.Mutex
	name    string
	err     error
	records []Record
}

func newMemorySink(name string) *memorySink {
	return &memorySink{name: name}
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Write(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

type orderSink struct {
	name  string
	order *[]string
}

func (s orderSink) Name() string { return s.name }

func (s orderSink) Write(context.Context, Record) error {
	*s.order = append(*s.order, s.name)
	return nil
}

type pageFetcher struct {
	bodies  map[string][]byte
	errs    map[string]error
	visited []string
}

func (f *pageFetcher) Fetch(_ context.Context, req FetchRequest) (FetchResponse, error) {
	f.visited = append(f.visited, req.URL)
	if err, ok := f.errs[req.URL]; ok {
		return FetchResponse{}, err
	}
	body, ok := f.bodies[req.URL]
	if !ok {
		return FetchResponse{}, &FetchError{URL: req.URL, Err: errors.New("no such host")}
	}
	return FetchResponse{URL: req.URL, StatusCode: 200, Body: body}, nil
}

type panicExtractor struct{}

func (panicExtractor) Extract(string, []byte) ([]Record, error) {
	panic("selector blew up")
}

// stepClock advances by step on every call.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
