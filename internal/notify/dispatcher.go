// Package notify delivers document status changes to an organization's
// registered webhook endpoint.
//
// Delivery is at-most-one-attempt, fire-and-forget: a bounded POST, no queue,
// no retry. All transport errors are logged and swallowed because a
// notification failure must never roll back or block the document emission
// it describes. Consumers needing stronger delivery subscribe to the status
// event stream instead.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tributo/internal/notify/metrics"
	"tributo/internal/organization"
	id "tributo/pkg/domain"
	"tributo/pkg/requestcontext"
)

// SignatureHeader carries the hex HMAC-SHA256 of the payload body, keyed
// with the organization's shared secret, so receivers can verify
// authenticity and integrity.
const SignatureHeader = "X-Tributo-Signature"

const eventStatusChanged = "document.status_changed"

// Event is the webhook payload. Constructed, signed, sent, and discarded;
// nothing is persisted beyond the delivery attempt.
type Event struct {
	Event            string `json:"event"`
	Clave            string `json:"clave"`
	Status           string `json:"status"`
	HaciendaResponse string `json:"hacienda_response,omitempty"`
	Timestamp        string `json:"timestamp"`
}

type Dispatcher struct {
	orgs    organization.Store
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

// WithHTTPClient overrides the transport. Tests inject counting transports;
// production keeps the default bounded client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = client
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = mx
	}
}

func New(orgs organization.Store, timeout time.Duration, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		orgs:   orgs,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyStatusChange informs the organization's endpoint of a status change.
// It never returns an error; organizations without a webhook URL are skipped
// without any network call.
func (d *Dispatcher) NotifyStatusChange(ctx context.Context, orgID id.OrgID, clave string, status id.DocumentStatus, rawResponse string) {
	org, err := d.orgs.GetOrganization(ctx, orgID)
	if err != nil {
		d.logger.Warn("webhook skipped, organization lookup failed",
			"org_id", orgID.String(), "clave", clave, "error", err)
		d.countFailed()
		return
	}
	if org.WebhookURL == "" {
		d.countSkipped()
		return
	}

	payload, err := json.Marshal(Event{
		Event:            eventStatusChanged,
		Clave:            clave,
		Status:           status.String(),
		HaciendaResponse: rawResponse,
		Timestamp:        requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	})
	if err != nil {
		d.logger.Error("webhook payload marshal failed", "clave", clave, "error", err)
		d.countFailed()
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, org.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		d.logger.Warn("webhook request build failed",
			"org_id", orgID.String(), "url", org.WebhookURL, "error", err)
		d.countFailed()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if org.WebhookSecret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, org.WebhookSecret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("webhook delivery failed",
			"org_id", orgID.String(), "clave", clave, "error", err)
		d.countFailed()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("webhook delivery rejected",
			"org_id", orgID.String(), "clave", clave, "status_code", resp.StatusCode)
		d.countFailed()
		return
	}

	d.logger.Info("webhook delivered",
		"org_id", orgID.String(), "clave", clave, "status", status.String())
	if d.metrics != nil {
		d.metrics.Delivered.Inc()
	}
}

// Sign computes the hex HMAC-SHA256 of payload under secret. Exported so
// receiver implementations and tests share the exact signing scheme.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (d *Dispatcher) countFailed() {
	if d.metrics != nil {
		d.metrics.Failed.Inc()
	}
}

func (d *Dispatcher) countSkipped() {
	if d.metrics != nil {
		d.metrics.Skipped.Inc()
	}
}
