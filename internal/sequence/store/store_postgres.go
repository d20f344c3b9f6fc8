// Package store provides the backing implementations for the sequence
// allocator.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tributo/internal/sequence"
	"tributo/pkg/platform/sentinel"
)

// DBProvider hands out the current *sql.DB per operation so healing pool
// resets take effect without restarting the store.
type DBProvider interface {
	DB() *sql.DB
}

// PostgresStore persists counter series in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE sequence_counters (
//	    org_id        UUID        NOT NULL,
//	    branch_code   CHAR(3)     NOT NULL,
//	    terminal_code CHAR(5)     NOT NULL,
//	    document_type CHAR(2)     NOT NULL,
//	    last_value    BIGINT      NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (org_id, branch_code, terminal_code, document_type)
//	);
//
// Rows are never decremented and never deleted.
type PostgresStore struct {
	pool    DBProvider
	timeout time.Duration
}

// NewPostgres constructs a PostgreSQL-backed sequence store.
func NewPostgres(pool DBProvider) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		timeout: 5 * time.Second,
	}
}

// NextValue performs the increment-or-create as a single conditional upsert.
// The RETURNING clause makes read-modify-write indivisible, so concurrent
// callers for the same key serialize on the row and each observe a distinct
// value with no gaps.
func (s *PostgresStore) NextValue(ctx context.Context, key sequence.CounterKey) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		INSERT INTO sequence_counters (org_id, branch_code, terminal_code, document_type, last_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, now(), now())
		ON CONFLICT (org_id, branch_code, terminal_code, document_type) DO UPDATE
		SET last_value = sequence_counters.last_value + 1,
			updated_at = now()
		RETURNING last_value`

	var lastValue int64
	err := s.pool.DB().QueryRowContext(ctx, query,
		key.OrgID.String(),
		key.Branch.String(),
		key.Terminal.String(),
		key.DocumentType.String(),
	).Scan(&lastValue)
	if err != nil {
		return 0, fmt.Errorf("%w: allocate sequence: %v", sentinel.ErrUnavailable, err)
	}

	return lastValue, nil
}
