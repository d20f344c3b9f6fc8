package notify_test

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tributo/internal/notify"
	"tributo/internal/organization"
	id "tributo/pkg/domain"
	"tributo/pkg/requestcontext"
)

// countingTransport counts round trips so tests can assert that skipped
// notifications perform no network call at all.
type countingTransport struct {
	calls atomic.Int64
	inner http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return t.inner.RoundTrip(req)
}

type DispatcherSuite struct {
	suite.Suite
	orgs *organization.InMemoryStore
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.orgs = organization.NewMemory()
}

func (s *DispatcherSuite) newDispatcher(transport http.RoundTripper) *notify.Dispatcher {
	return notify.New(s.orgs, 10*time.Second, slog.New(slog.DiscardHandler),
		notify.WithHTTPClient(&http.Client{Transport: transport, Timeout: 10 * time.Second}),
	)
}

func (s *DispatcherSuite) putOrg(url, secret string) id.OrgID {
	orgID := id.NewOrgID()
	s.orgs.Put(&organization.Organization{
		ID:                 orgID,
		Name:               "Comercial La Uruca S.A.",
		Plan:               "pro",
		SubscriptionStatus: organization.SubscriptionActive,
		WebhookURL:         url,
		WebhookSecret:      secret,
	})
	return orgID
}

func (s *DispatcherSuite) TestNotifyStatusChange_DeliversPayload() {
	var received []byte
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get(notify.SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	orgID := s.putOrg(server.URL, "s3cret")
	transport := &countingTransport{inner: http.DefaultTransport}
	d := s.newDispatcher(transport)

	sent := time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), sent)
	d.NotifyStatusChange(ctx, orgID, "506"+"02052026"+"0", id.StatusAccepted, `{"ind-estado":"aceptado"}`)

	s.Equal(int64(1), transport.calls.Load())

	var event notify.Event
	s.Require().NoError(json.Unmarshal(received, &event))
	s.Equal("document.status_changed", event.Event)
	s.Equal("accepted", event.Status)
	s.Equal(`{"ind-estado":"aceptado"}`, event.HaciendaResponse)
	s.Equal("2026-05-02T09:00:00Z", event.Timestamp)

	want := notify.Sign(received, "s3cret")
	s.True(hmac.Equal([]byte(want), []byte(gotSignature)), "signature must cover the exact serialized payload")
}

func (s *DispatcherSuite) TestNotifyStatusChange_NoWebhookURL() {
	orgID := s.putOrg("", "")
	transport := &countingTransport{inner: http.DefaultTransport}
	d := s.newDispatcher(transport)

	d.NotifyStatusChange(context.Background(), orgID, "clave", id.StatusRejected, "")

	s.Equal(int64(0), transport.calls.Load(), "no network call for organizations without a webhook")
}

func (s *DispatcherSuite) TestNotifyStatusChange_NoSecretNoSignature() {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(notify.SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	orgID := s.putOrg(server.URL, "")
	d := s.newDispatcher(http.DefaultTransport)

	d.NotifyStatusChange(context.Background(), orgID, "clave", id.StatusAccepted, "")

	s.Empty(gotSignature)
}

func (s *DispatcherSuite) TestNotifyStatusChange_SwallowsFailures() {
	s.Run("endpoint returns 500", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		orgID := s.putOrg(server.URL, "")
		d := s.newDispatcher(http.DefaultTransport)

		// Must return normally; failure is logged and swallowed.
		d.NotifyStatusChange(context.Background(), orgID, "clave", id.StatusError, "")
	})

	s.Run("endpoint unreachable", func() {
		orgID := s.putOrg("http://127.0.0.1:1/unreachable", "")
		d := s.newDispatcher(http.DefaultTransport)

		d.NotifyStatusChange(context.Background(), orgID, "clave", id.StatusError, "")
	})

	s.Run("unknown organization", func() {
		d := s.newDispatcher(http.DefaultTransport)
		d.NotifyStatusChange(context.Background(), id.NewOrgID(), "clave", id.StatusError, "")
	})
}
