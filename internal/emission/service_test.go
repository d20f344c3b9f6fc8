package emission

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tributo/internal/access"
	"tributo/internal/fiscal"
	"tributo/internal/hacienda"
	id "tributo/pkg/domain"
	dErrors "tributo/pkg/domain-errors"
	"tributo/pkg/requestcontext"
)

type stubGate struct {
	err error
}

func (g *stubGate) VerifyAccess(context.Context, id.OrgID, id.DocumentType) error {
	return g.err
}

type stubSequencer struct {
	next int64
	err  error
}

func (s *stubSequencer) Next(context.Context, id.OrgID, id.BranchCode, id.TerminalCode, id.DocumentType) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.next++
	return s.next, nil
}

type statusCall struct {
	orgID       id.OrgID
	clave       string
	status      id.DocumentStatus
	rawResponse string
}

type recordingSink struct {
	calls []statusCall
}

func (r *recordingSink) NotifyStatusChange(_ context.Context, orgID id.OrgID, clave string, status id.DocumentStatus, raw string) {
	r.calls = append(r.calls, statusCall{orgID, clave, status, raw})
}

func (r *recordingSink) PublishStatusChange(_ context.Context, orgID id.OrgID, clave string, status id.DocumentStatus, raw string) {
	r.calls = append(r.calls, statusCall{orgID, clave, status, raw})
}

type ServiceSuite struct {
	suite.Suite

	gate      *stubGate
	sequencer *stubSequencer
	notifier  *recordingSink
	stream    *recordingSink
	svc       *Service
}

func (s *ServiceSuite) SetupTest() {
	s.gate = &stubGate{}
	s.sequencer = &stubSequencer{}
	s.notifier = &recordingSink{}
	s.stream = &recordingSink{}

	svc, err := New(s.gate, s.sequencer, s.notifier, s.stream,
		slog.New(slog.DiscardHandler),
		WithSynchronousNotify(),
		WithSecurityCodeSource(func() (string, error) { return "12345678", nil }),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) request() Request {
	return Request{
		OrgID:        id.NewOrgID(),
		Branch:       id.DefaultBranch,
		Terminal:     id.DefaultTerminal,
		DocumentType: id.DocumentTypeInvoice,
		Situation:    id.SituationNormal,
		IssuerID:     "3101123456",
		EmissionDate: time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC),
		Lines: []fiscal.LineInput{
			{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1000)},
		},
	}
}

func (s *ServiceSuite) TestPrepare_BuildsDocument() {
	doc, err := s.svc.Prepare(context.Background(), s.request())
	s.Require().NoError(err)

	s.Equal(int64(1), doc.Sequence)
	s.Equal("00000001", doc.Consecutive)
	s.Equal(id.StatusPending, doc.Status)
	s.Len(doc.Clave, 50)
	s.Equal("506", doc.Clave[:3])
	s.Equal("070326", doc.Clave[3:9], "clave carries the emission date as ddmmyy")
	s.Equal("12345678", doc.Clave[42:], "clave ends with the security code")

	s.Require().Len(doc.Lines, 1)
	s.True(doc.NetTotal.Equal(decimal.RequireFromString("2000")), "net total %s", doc.NetTotal)
	s.True(doc.TaxTotal.Equal(decimal.RequireFromString("260")), "tax total %s", doc.TaxTotal)
	s.True(doc.GrandTotal.Equal(decimal.RequireFromString("2260")), "grand total %s", doc.GrandTotal)
}

func (s *ServiceSuite) TestPrepare_SequencesAdvancePerCall() {
	req := s.request()
	first, err := s.svc.Prepare(context.Background(), req)
	s.Require().NoError(err)
	second, err := s.svc.Prepare(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(int64(1), first.Sequence)
	s.Equal(int64(2), second.Sequence)
	s.NotEqual(first.Clave, second.Clave)
}

func (s *ServiceSuite) TestPrepare_DeniedByGate() {
	s.gate.err = &access.QuotaExceededError{Plan: "free", Quota: 25}

	doc, err := s.svc.Prepare(context.Background(), s.request())
	s.Nil(doc)

	var quota *access.QuotaExceededError
	s.Require().ErrorAs(err, &quota)
	s.Equal(0, int(s.sequencer.next), "a denied request must not consume a consecutive number")
}

func (s *ServiceSuite) TestPrepare_SequencerFailure() {
	s.sequencer.err = dErrors.New(dErrors.CodeUnavailable, "sequence store unreachable")

	_, err := s.svc.Prepare(context.Background(), s.request())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestPrepare_DefaultsEmissionDateToRequestClock() {
	pinned := time.Date(2026, time.January, 15, 8, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), pinned)

	req := s.request()
	req.EmissionDate = time.Time{}

	doc, err := s.svc.Prepare(ctx, req)
	s.Require().NoError(err)
	s.Equal("150126", doc.Clave[3:9])
	s.True(doc.EmittedAt.Equal(pinned))
}

func (s *ServiceSuite) TestRecordStatusChange_FansOutToBothChannels() {
	orgID := id.NewOrgID()
	s.svc.RecordStatusChange(context.Background(), orgID, "clave-1", id.StatusAccepted, `{"ind-estado":"aceptado"}`)

	s.Require().Len(s.notifier.calls, 1)
	s.Require().Len(s.stream.calls, 1)
	s.Equal(id.StatusAccepted, s.notifier.calls[0].status)
	s.Equal("clave-1", s.stream.calls[0].clave)
	s.Equal(orgID, s.stream.calls[0].orgID)
}

func (s *ServiceSuite) TestRecordAuthorityResponse() {
	cases := []struct {
		name       string
		code       string
		wantKind   hacienda.Kind
		wantStatus id.DocumentStatus
	}{
		{"duplicate clave rejects", "29", hacienda.KindDuplicate, id.StatusRejected},
		{"schema violation rejects", "44", hacienda.KindTerminal, id.StatusRejected},
		{"transient strain parks in error", "503", hacienda.KindRetryable, id.StatusError},
		{"unknown code parks in error", "XX-1", hacienda.KindUnknown, id.StatusError},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.stream.calls = nil

			classification := s.svc.RecordAuthorityResponse(context.Background(), id.NewOrgID(), "clave-2", tc.code, "{}")
			s.Equal(tc.wantKind, classification.Kind)

			s.Require().Len(s.stream.calls, 1)
			s.Equal(tc.wantStatus, s.stream.calls[0].status)
		})
	}
}

func TestNew_RequiresCoreDependencies(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	_, err := New(nil, &stubSequencer{}, nil, nil, logger)
	require.Error(t, err)

	_, err = New(&stubGate{}, nil, nil, nil, logger)
	require.Error(t, err)

	// Notifier and stream are optional side-channels.
	svc, err := New(&stubGate{}, &stubSequencer{}, nil, nil, logger)
	require.NoError(t, err)
	svc.RecordStatusChange(context.Background(), id.NewOrgID(), "clave", id.StatusAccepted, "")
}

func TestRandomSecurityCode(t *testing.T) {
	code, err := randomSecurityCode()
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
