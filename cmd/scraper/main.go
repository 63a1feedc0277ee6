package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/price-predictor/internal/domain/catalog"
	"github.com/yanqian/price-predictor/internal/infra/config"
	"github.com/yanqian/price-predictor/internal/infra/productapi"
	"github.com/yanqian/price-predictor/internal/infra/productsink"
	"github.com/yanqian/price-predictor/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	opts, err := parseFlags(os.Args[1:], cfg.Scraper)
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}
	if err := opts.Validate(); err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	lg := logger.New().With("command", "scraper")
	if err := run(ctx, opts, cfg.Scraper, lg); err != nil {
		lg.Error("scrape failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts catalog.Options, cfg config.ScraperConfig, lg *slog.Logger) error {
	sinks, cleanup, err := buildSinks(ctx, opts, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := catalog.NewService(productapi.NewClient(opts.APIURL, opts.Timeout), sinks, uuid.NewString, lg)

	params := url.Values{}
	for k, v := range opts.Params {
		params.Set(k, v)
	}
	start := time.Now()
	result, err := svc.Run(ctx, opts.APIURL, params)
	lg.Info("scrape finished",
		"run_id", result.RunID,
		"products", result.Products,
		"columns", result.Columns,
		"sinks", result.Sinks,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func parseFlags(args []string, defaults config.ScraperConfig) (catalog.Options, error) {
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	apiURL := fs.String("url", defaults.APIURL, "product API endpoint")
	sinks := fs.String("sinks", strings.Join(defaults.Sinks, ","), "comma separated sinks: csv, postgres, objectstore")
	csvPath := fs.String("csv", defaults.CSVPath, "CSV output path")
	timeout := fs.Duration("timeout", defaults.Timeout, "HTTP timeout for the product API")
	params := paramFlag{}
	fs.Var(params, "param", "query parameter key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return catalog.Options{}, err
	}
	if fs.NArg() > 0 {
		return catalog.Options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return catalog.Options{
		APIURL:      strings.TrimSpace(*apiURL),
		Params:      params,
		Timeout:     *timeout,
		Sinks:       splitSinks(*sinks),
		CSVPath:     strings.TrimSpace(*csvPath),
		PostgresDSN: strings.TrimSpace(defaults.Postgres.DSN),
		Bucket:      strings.TrimSpace(defaults.ObjectStore.Bucket),
	}, nil
}

func buildSinks(ctx context.Context, opts catalog.Options, cfg config.ScraperConfig) ([]catalog.Sink, func(), error) {
	var (
		sinks   []catalog.Sink
		closers []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	for _, name := range opts.Sinks {
		switch name {
		case catalog.SinkCSV:
			sinks = append(sinks, productsink.NewCSVSink(opts.CSVPath))
		case catalog.SinkPostgres:
			pool, err := newPostgresPool(ctx, opts.PostgresDSN, cfg.Postgres)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			closers = append(closers, pool.Close)
			sink, err := productsink.NewPostgresSink(ctx, pool)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			sinks = append(sinks, sink)
		case catalog.SinkObjectStore:
			store := cfg.ObjectStore
			sink, err := productsink.NewObjectStoreSink(productsink.ObjectStoreOptions{
				Endpoint:  store.Endpoint,
				AccessKey: store.AccessKey,
				SecretKey: store.SecretKey,
				Bucket:    opts.Bucket,
				Region:    store.Region,
				UseSSL:    store.UseSSL,
				Prefix:    store.Prefix,
			})
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			sinks = append(sinks, sink)
		default:
			cleanup()
			return nil, nil, fmt.Errorf("unknown sink %q", name)
		}
	}
	return sinks, cleanup, nil
}

func newPostgresPool(ctx context.Context, dsn string, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func splitSinks(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// paramFlag collects repeated -param key=value flags.
type paramFlag map[string]string

func (p paramFlag) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (p paramFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return errors.New("expected key=value")
	}
	p[key] = strings.TrimSpace(val)
	return nil
}
