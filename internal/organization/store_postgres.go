package organization

import (
	"context"
	"database/sql"
	"errors"
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

// PostgresStore reads tenant records from the account-management schema.
//
// Expected columns on organizations: id, name, plan, subscription_status,
// subscription_end, webhook_url, webhook_secret.
type PostgresStore struct {
	pool    DBProvider
	timeout time.Duration
}

func NewPostgres(pool DBProvider) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		timeout: 5 * time.Second,
	}
}

func (s *PostgresStore) GetOrganization(ctx context.Context, orgID id.OrgID) (*Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		SELECT id, name, plan, subscription_status, subscription_end, webhook_url, webhook_secret
		FROM organizations
		WHERE id = $1`

	var (
		org             Organization
		rawID           string
		subscriptionEnd sql.NullTime
		webhookURL      sql.NullString
		webhookSecret   sql.NullString
	)
	err := s.pool.DB().QueryRowContext(ctx, query, orgID.String()).Scan(
		&rawID,
		&org.Name,
		&org.Plan,
		&org.SubscriptionStatus,
		&subscriptionEnd,
		&webhookURL,
		&webhookSecret,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get organization: %v", sentinel.ErrUnavailable, err)
	}

	org.ID, err = id.ParseOrgID(rawID)
	if err != nil {
		return nil, fmt.Errorf("organization row carries invalid id %q: %w", rawID, err)
	}
	if subscriptionEnd.Valid {
		org.SubscriptionEnd = subscriptionEnd.Time
	}
	if webhookURL.Valid {
		org.WebhookURL = webhookURL.String
	}
	if webhookSecret.Valid {
		org.WebhookSecret = webhookSecret.String
	}

	return &org, nil
}
