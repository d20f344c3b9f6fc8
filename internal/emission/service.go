// Package emission is the orchestration facade over the emission core: it
// gates a request through the access enforcer, allocates a consecutive
// number, composes the clave, and runs the fiscal calculator, returning a
// prepared document envelope ready for the signing and transport layers.
//
// It also owns the status side-channels: a recorded status change fans out
// to the webhook dispatcher (detached from the caller) and the kafka status
// stream, neither of which can fail the call.
package emission

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"tributo/internal/access"
	"tributo/internal/clave"
	"tributo/internal/emission/metrics"
	"tributo/internal/fiscal"
	"tributo/internal/hacienda"
	"tributo/internal/sequence"
	id "tributo/pkg/domain"
	dErrors "tributo/pkg/domain-errors"
	"tributo/pkg/requestcontext"
)

// Gate admits or denies an emission attempt.
type Gate interface {
	VerifyAccess(ctx context.Context, orgID id.OrgID, docType id.DocumentType) error
}

// Sequencer allocates consecutive numbers.
type Sequencer interface {
	Next(ctx context.Context, orgID id.OrgID, branch id.BranchCode, terminal id.TerminalCode, docType id.DocumentType) (int64, error)
}

// Notifier delivers a webhook for a status change.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, orgID id.OrgID, clave string, status id.DocumentStatus, rawResponse string)
}

// StreamPublisher mirrors a status change onto the event stream.
type StreamPublisher interface {
	PublishStatusChange(ctx context.Context, orgID id.OrgID, clave string, status id.DocumentStatus, rawResponse string)
}

// Request carries everything needed to prepare one document.
type Request struct {
	OrgID        id.OrgID
	Branch       id.BranchCode
	Terminal     id.TerminalCode
	DocumentType id.DocumentType
	Situation    id.Situation
	// IssuerID is the issuer tax identifier embedded in the clave.
	IssuerID string
	Lines    []fiscal.LineInput
	// EmissionDate defaults to the request clock when zero.
	EmissionDate time.Time
}

// Document is a prepared emission envelope. Totals are rounded to the
// 2-decimal document precision; line figures keep their 5-decimal unit
// precision.
type Document struct {
	Clave string
	// Sequence is the raw allocator value; Consecutive is the 8-digit
	// document-body rendering of it.
	Sequence    int64
	Consecutive string
	Status      id.DocumentStatus
	EmittedAt   time.Time

	Lines      []fiscal.LineCalculation
	NetTotal   decimal.Decimal
	TaxTotal   decimal.Decimal
	GrandTotal decimal.Decimal
}

type Service struct {
	gate      Gate
	sequencer Sequencer
	notifier  Notifier
	stream    StreamPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	securityCode func() (string, error)
	// syncNotify keeps webhook dispatch on the caller's goroutine.
	syncNotify bool
}

type Option func(*Service)

func WithMetrics(mx *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = mx }
}

// WithSecurityCodeSource overrides the random 8-digit security code
// generator. Used by tests that need deterministic claves.
func WithSecurityCodeSource(fn func() (string, error)) Option {
	return func(s *Service) { s.securityCode = fn }
}

// WithSynchronousNotify disables the detached webhook dispatch. Tests use
// this to observe delivery without racing a goroutine.
func WithSynchronousNotify() Option {
	return func(s *Service) { s.syncNotify = true }
}

func New(gate Gate, sequencer Sequencer, notifier Notifier, stream StreamPublisher, logger *slog.Logger, opts ...Option) (*Service, error) {
	if gate == nil {
		return nil, errors.New("emission: gate is required")
	}
	if sequencer == nil {
		return nil, errors.New("emission: sequencer is required")
	}
	if logger == nil {
		return nil, errors.New("emission: logger is required")
	}
	s := &Service{
		gate:         gate,
		sequencer:    sequencer,
		notifier:     notifier,
		stream:       stream,
		logger:       logger,
		securityCode: randomSecurityCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Prepare runs the emission pipeline: gate, allocate, compose the clave,
// calculate line figures and totals. The returned document starts in the
// pending status; it has consumed a consecutive number even if the caller
// later abandons it, which is what guarantees the series stays gapless
// under the authority's rules.
func (s *Service) Prepare(ctx context.Context, req Request) (*Document, error) {
	if err := s.gate.VerifyAccess(ctx, req.OrgID, req.DocumentType); err != nil {
		s.countDenied(err)
		return nil, err
	}

	seq, err := s.sequencer.Next(ctx, req.OrgID, req.Branch, req.Terminal, req.DocumentType)
	if err != nil {
		s.countFailed()
		return nil, err
	}

	security, err := s.securityCode()
	if err != nil {
		s.countFailed()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "security code generation failed")
	}

	emittedAt := req.EmissionDate
	if emittedAt.IsZero() {
		emittedAt = requestcontext.Now(ctx)
	}

	key, err := clave.Generate(clave.Params{
		Branch:       req.Branch,
		Terminal:     req.Terminal,
		DocumentType: req.DocumentType,
		Sequence:     seq,
		IssuerID:     req.IssuerID,
		Situation:    req.Situation,
		SecurityCode: security,
		EmissionDate: emittedAt,
	})
	if err != nil {
		s.countFailed()
		return nil, err
	}

	doc := &Document{
		Clave:       key,
		Sequence:    seq,
		Consecutive: sequence.Format(seq),
		Status:      id.StatusPending,
		EmittedAt:   emittedAt,
		Lines:       make([]fiscal.LineCalculation, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		calc := fiscal.CalculateLine(line)
		doc.Lines = append(doc.Lines, calc)
		doc.NetTotal = doc.NetTotal.Add(calc.NetSubtotal)
		doc.TaxTotal = doc.TaxTotal.Add(calc.TaxAmount)
		doc.GrandTotal = doc.GrandTotal.Add(calc.Total)
	}
	doc.NetTotal = fiscal.RoundTotal(doc.NetTotal)
	doc.TaxTotal = fiscal.RoundTotal(doc.TaxTotal)
	doc.GrandTotal = fiscal.RoundTotal(doc.GrandTotal)

	s.logger.Info("document prepared",
		"org_id", req.OrgID.String(),
		"clave", key,
		"document_type", req.DocumentType.String(),
		"sequence", seq,
	)
	if s.metrics != nil {
		s.metrics.DocumentsPrepared.WithLabelValues(req.DocumentType.String()).Inc()
	}
	return doc, nil
}

// RecordStatusChange fans a status transition out to the webhook dispatcher
// and the event stream. Webhook delivery runs detached from the caller's
// context so its timeout never delays the emission path; neither channel
// can fail the call.
func (s *Service) RecordStatusChange(ctx context.Context, orgID id.OrgID, docKey string, status id.DocumentStatus, rawResponse string) {
	if s.metrics != nil {
		s.metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	}
	if s.stream != nil {
		s.stream.PublishStatusChange(ctx, orgID, docKey, status, rawResponse)
	}
	if s.notifier == nil {
		return
	}
	if s.syncNotify {
		s.notifier.NotifyStatusChange(ctx, orgID, docKey, status, rawResponse)
		return
	}
	detached := context.WithoutCancel(ctx)
	go s.notifier.NotifyStatusChange(detached, orgID, docKey, status, rawResponse)
}

// RecordAuthorityResponse classifies an authority response code, derives
// the resulting document status, and records the transition. Retryable and
// unknown codes park the document in the error status for the caller's
// backoff loop; terminal and duplicate codes reject it.
func (s *Service) RecordAuthorityResponse(ctx context.Context, orgID id.OrgID, docKey string, code string, rawResponse string) hacienda.Classification {
	classification := hacienda.Classify(code)

	var status id.DocumentStatus
	switch classification.Kind {
	case hacienda.KindTerminal, hacienda.KindDuplicate:
		status = id.StatusRejected
	default:
		status = id.StatusError
	}

	s.logger.Info("authority response recorded",
		"clave", docKey,
		"code", code,
		"kind", string(classification.Kind),
		"status", string(status),
	)
	s.RecordStatusChange(ctx, orgID, docKey, status, rawResponse)
	return classification
}

func (s *Service) countDenied(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.PrepareDenied.WithLabelValues(denialReason(err)).Inc()
}

func (s *Service) countFailed() {
	if s.metrics != nil {
		s.metrics.PrepareFailed.Inc()
	}
}

func denialReason(err error) string {
	var expired *access.SubscriptionExpiredError
	var quota *access.QuotaExceededError
	var feature *access.PlanFeatureError
	switch {
	case errors.As(err, &expired):
		return "subscription_expired"
	case errors.As(err, &quota):
		return "quota_exceeded"
	case errors.As(err, &feature):
		return "plan_feature"
	default:
		return string(dErrors.CodeOf(err))
	}
}

var securityCodeMax = big.NewInt(100_000_000)

// randomSecurityCode draws a uniform 8-digit code from crypto/rand.
func randomSecurityCode() (string, error) {
	n, err := rand.Int(rand.Reader, securityCodeMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}
