package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Service runs scrapes.
type Service interface {
	Run(ctx context.Context, source string, params url.Values) (Result, error)
}

type service struct {
	fetcher  Fetcher
	sinks    []Sink
	logger   *slog.Logger
	newRunID func() string
	now      func() time.Time
}

// NewService wires the scraper. newRunID supplies the identifier stamped on every sink write.
func NewService(fetcher Fetcher, sinks []Sink, newRunID func() string, logger *slog.Logger) Service {
	return &service{
		fetcher:  fetcher,
		sinks:    sinks,
		logger:   logger.With("component", "catalog.service"),
		newRunID: newRunID,
		now:      time.Now,
	}
}

// Run fetches once and hands the same snapshot to every sink. A failing sink does not stop
// the others; all sink errors are returned together.
func (s *service) Run(ctx context.Context, source string, params url.Values) (Result, error) {
	run := Run{ID: s.newRunID(), Source: source, StartedAt: s.now().UTC()}

	products, err := s.fetcher.Fetch(ctx, params)
	if err != nil {
		return Result{RunID: run.ID}, fmt.Errorf("fetch products: %w", err)
	}
	table := BuildTable(products)
	s.logger.Info("products fetched", "run_id", run.ID, "products", len(products), "columns", len(table.Columns))

	snap := Snapshot{Run: run, Products: products, Table: table}
	result := Result{RunID: run.ID, Products: len(products), Columns: len(table.Columns)}
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, snap); err != nil {
			s.logger.Error("sink write failed", "run_id", run.ID, "sink", sink.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
			continue
		}
		s.logger.Info("sink write complete", "run_id", run.ID, "sink", sink.Name())
		result.Sinks = append(result.Sinks, sink.Name())
	}
	return result, errors.Join(errs...)
}
