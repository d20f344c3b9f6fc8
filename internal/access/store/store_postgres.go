package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "tributo/pkg/domain"
	"tributo/pkg/platform/sentinel"
)

// DBProvider hands out the current *sql.DB per operation so healing pool
// resets take effect without restarting the store.
type DBProvider interface {
	DB() *sql.DB
}

// PostgresCounter counts persisted documents for quota checks.
//
// Expected columns on documents: org_id, created_at. The documents table is
// owned by the workflow layer; this store only reads it.
type PostgresCounter struct {
	pool    DBProvider
	timeout time.Duration
}

func NewPostgres(pool DBProvider) *PostgresCounter {
	return &PostgresCounter{
		pool:    pool,
		timeout: 5 * time.Second,
	}
}

func (c *PostgresCounter) CountCreatedSince(ctx context.Context, orgID id.OrgID, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	const query = `SELECT COUNT(*) FROM documents WHERE org_id = $1 AND created_at >= $2`

	var count int
	err := c.pool.DB().QueryRowContext(ctx, query, orgID.String(), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count documents: %v", sentinel.ErrUnavailable, err)
	}
	return count, nil
}
