package catalog

import (
	"context"
	"net/url"
	"time"
)

// Product is one record of the upstream catalog, decoded as loosely typed JSON.
type Product map[string]any

// Table is the flattened, column aligned view of a scrape.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Run identifies one scrape.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
}

// Snapshot is handed to every sink.
type Snapshot struct {
	Run      Run
	Products []Product
	Table    Table
}

// Result summarizes a finished scrape.
type Result struct {
	RunID    string
	Products int
	Columns  int
	Sinks    []string
}

// Fetcher downloads the product list.
type Fetcher interface {
	Fetch(ctx context.Context, params url.Values) ([]Product, error)
}

// Sink persists a snapshot.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap Snapshot) error
}
