//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"tributo/internal/sequence"
	seqstore "tributo/internal/sequence/store"
	id "tributo/pkg/domain"
	"tributo/pkg/testutil/containers"
)

const sequenceSchema = `
CREATE TABLE IF NOT EXISTS sequence_counters (
    org_id        UUID        NOT NULL,
    branch_code   CHAR(3)     NOT NULL,
    terminal_code CHAR(5)     NOT NULL,
    document_type CHAR(2)     NOT NULL,
    last_value    BIGINT      NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (org_id, branch_code, terminal_code, document_type)
)`

// staticDB satisfies the store's DBProvider with a fixed test handle.
type staticDB struct{ db *sql.DB }

func (s staticDB) DB() *sql.DB { return s.db }

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *seqstore.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())

	err := s.postgres.ApplySchema(context.Background(), sequenceSchema)
	s.Require().NoError(err)

	s.store = seqstore.NewPostgres(staticDB{db: s.postgres.DB})
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "sequence_counters")
	s.Require().NoError(err)
}

func testKey(docType id.DocumentType) sequence.CounterKey {
	return sequence.CounterKey{
		OrgID:        id.NewOrgID(),
		Branch:       id.DefaultBranch,
		Terminal:     id.DefaultTerminal,
		DocumentType: docType,
	}
}

func (s *PostgresStoreSuite) TestNextValue_CreatesAtOne() {
	ctx := context.Background()
	key := testKey(id.DocumentTypeInvoice)

	n, err := s.store.NextValue(ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.store.NextValue(ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
}

func (s *PostgresStoreSuite) TestNextValue_SeriesAreIndependent() {
	ctx := context.Background()
	invoice := testKey(id.DocumentTypeInvoice)
	ticket := invoice
	ticket.DocumentType = id.DocumentTypeTicket

	for i := 0; i < 3; i++ {
		_, err := s.store.NextValue(ctx, invoice)
		s.Require().NoError(err)
	}

	n, err := s.store.NextValue(ctx, ticket)
	s.Require().NoError(err)
	s.Equal(int64(1), n, "ticket series must not share the invoice counter")
}

// TestNextValue_Concurrent verifies the allocator's hard invariant against a
// real database: concurrent upserts on one composite key serialize on the
// row and yield the exact set {1..N}.
func (s *PostgresStoreSuite) TestNextValue_Concurrent() {
	ctx := context.Background()
	key := testKey(id.DocumentTypeInvoice)
	const goroutines = 50

	results := make([]int64, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			n, err := s.store.NextValue(ctx, key)
			s.NoError(err)
			results[idx] = n
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, n := range results {
		s.Equal(int64(i+1), n, "allocation %d duplicated or skipped", i)
	}
}
