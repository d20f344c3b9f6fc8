// Package sequence issues strictly increasing, gap-free consecutive numbers
// per (organization, branch, terminal, document type) series.
//
// Correctness must hold across process boundaries and restarts, so the
// service never caches or locally increments values: every allocation is a
// single atomic increment-or-create against the backing store. If the store
// is unreachable the call fails and the caller retries the whole allocation;
// fabricating a number locally would break the gap-free guarantee under
// multi-process deployment.
package sequence

import (
	"context"
	"fmt"
	"log/slog"

	id "tributo/pkg/domain"
	dErrors "tributo/pkg/domain-errors"
)

// formatWidth is the zero-padded width of the consecutive number field in
// the document body. The clave embeds the same number at 10 digits; the
// body field is 8 per the v4.4 layout.
const formatWidth = 8

// Store performs the atomic increment-or-create for a counter series.
type Store interface {
	// NextValue atomically increments the counter for key, creating it at 1
	// if absent, and returns the new value. The read-modify-write must be a
	// single indivisible operation against the backing store.
	NextValue(ctx context.Context, key CounterKey) (int64, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sequence store is required")
	}

	svc := &Service{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Next allocates the next consecutive number for the series. Branch and
// terminal default to the main office ("001" / "00001") when empty.
func (s *Service) Next(ctx context.Context, orgID id.OrgID, branch id.BranchCode, terminal id.TerminalCode, docType id.DocumentType) (int64, error) {
	if orgID.IsNil() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "org_id is required")
	}
	if !docType.IsValid() {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type code: %q", docType)
	}

	branchCode, err := id.ParseBranchCode(branch.String())
	if err != nil {
		return 0, err
	}
	terminalCode, err := id.ParseTerminalCode(terminal.String())
	if err != nil {
		return 0, err
	}

	key := CounterKey{
		OrgID:        orgID,
		Branch:       branchCode,
		Terminal:     terminalCode,
		DocumentType: docType,
	}

	value, err := s.store.NextValue(ctx, key)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "sequence store unreachable")
	}

	s.logger.Debug("allocated consecutive number",
		"org_id", orgID.String(),
		"branch", branchCode.String(),
		"terminal", terminalCode.String(),
		"document_type", docType.String(),
		"sequence", value,
	)

	return value, nil
}

// Format zero-pads a consecutive number to the 8-digit document-body field.
func Format(n int64) string {
	return fmt.Sprintf("%0*d", formatWidth, n)
}
