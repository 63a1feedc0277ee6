package productsink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/price-predictor/internal/domain/catalog"
)

const createProductsTable = `
	CREATE TABLE IF NOT EXISTS scraped_products (
		id          BIGSERIAL PRIMARY KEY,
		run_id      UUID        NOT NULL,
		source      TEXT        NOT NULL,
		position    INTEGER     NOT NULL,
		payload     JSONB       NOT NULL,
		scraped_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scraped_products_run ON scraped_products(run_id);
`

// PostgresSink stores every product as a JSONB row tagged with the run id.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink constructs the sink and makes sure the table exists.
func NewPostgresSink(ctx context.Context, pool *pgxpool.Pool) (*PostgresSink, error) {
	if _, err := pool.Exec(ctx, createProductsTable); err != nil {
		return nil, fmt.Errorf("migrate scraped_products: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Name() string { return catalog.SinkPostgres }

// Write inserts all rows of the run in a single transaction.
func (s *PostgresSink) Write(ctx context.Context, snap catalog.Snapshot) error {
	payloads, err := encodePayloads(snap.Products)
	if err != nil {
		return err
	}
	if len(payloads) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, payload := range payloads {
		batch.Queue(`
			INSERT INTO scraped_products (run_id, source, position, payload, scraped_at)
			VALUES ($1, $2, $3, $4::jsonb, $5)
		`, snap.Run.ID, snap.Run.Source, i, payload, snap.Run.StartedAt)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func encodePayloads(products []catalog.Product) ([]string, error) {
	out := make([]string, 0, len(products))
	for i, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode product %d: %w", i, err)
		}
		out = append(out, string(data))
	}
	return out, nil
}

var _ catalog.Sink = (*PostgresSink)(nil)
