package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	fetchFn func(ctx context.Context, params url.Values) ([]Product, error)
}

func (s *stubFetcher) Fetch(ctx context.Context, params url.Values) ([]Product, error) {
	if s.fetchFn != nil {
		return s.fetchFn(ctx, params)
	}
	return nil, nil
}

type stubSink struct {
	name  string
	err   error
	snaps []Snapshot
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Write(_ context.Context, snap Snapshot) error {
	s.snaps = append(s.snaps, snap)
	return s.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceRunWritesEverySink(t *testing.T) {
	fetcher := &stubFetcher{fetchFn: func(_ context.Context, params url.Values) ([]Product, error) {
		require.Equal(t, "5", params.Get("limit"))
		return []Product{{"id": json.Number("1"), "title": "Backpack"}}, nil
	}}
	csv := &stubSink{name: "csv"}
	pg := &stubSink{name: "postgres"}
	svc := NewService(fetcher, []Sink{csv, pg}, func() string { return "run-1" }, newTestLogger())

	result, err := svc.Run(context.Background(), "https://fakestoreapi.com/products", url.Values{"limit": {"5"}})
	require.NoError(t, err)
	require.Equal(t, Result{RunID: "run-1", Products: 1, Columns: 2, Sinks: []string{"csv", "postgres"}}, result)

	require.Len(t, csv.snaps, 1)
	snap := csv.snaps[0]
	require.Equal(t, "run-1", snap.Run.ID)
	require.Equal(t, "https://fakestoreapi.com/products", snap.Run.Source)
	require.Equal(t, []string{"id", "title"}, snap.Table.Columns)
	require.Equal(t, snap, pg.snaps[0])
}

func TestServiceRunFetchError(t *testing.T) {
	sink := &stubSink{name: "csv"}
	svc := NewService(&stubFetcher{fetchFn: func(context.Context, url.Values) ([]Product, error) {
		return nil, errors.New("status=503")
	}}, []Sink{sink}, func() string { return "run-2" }, newTestLogger())

	_, err := svc.Run(context.Background(), "src", nil)
	require.ErrorContains(t, err, "fetch products")
	require.Empty(t, sink.snaps)
}

func TestServiceRunContinuesAfterSinkFailure(t *testing.T) {
	broken := &stubSink{name: "postgres", err: errors.New("connection refused")}
	csv := &stubSink{name: "csv"}
	svc := NewService(&stubFetcher{}, []Sink{broken, csv}, func() string { return "run-3" }, newTestLogger())
	started := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return started }

	result, err := svc.Run(context.Background(), "src", nil)
	require.ErrorContains(t, err, "postgres sink: connection refused")
	require.Equal(t, []string{"csv"}, result.Sinks)
	require.Len(t, csv.snaps, 1)
	require.Equal(t, started, csv.snaps[0].Run.StartedAt)
	require.Empty(t, csv.snaps[0].Products)
}
