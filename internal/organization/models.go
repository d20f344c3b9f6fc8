// Package organization is the emission core's read model of a tenant. The
// account-management subsystem owns the records; the core only resolves
// plan, subscription, and webhook configuration from them.
package organization

import (
	"time"

	id "tributo/pkg/domain"
)

// SubscriptionStatus mirrors the billing subsystem's lifecycle tags.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Organization is the tenant read model.
type Organization struct {
	ID                 id.OrgID           `json:"id"`
	Name               string             `json:"name"`
	Plan               string             `json:"plan"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	// SubscriptionEnd is the current paid-through timestamp. Zero means
	// no expiry recorded.
	SubscriptionEnd time.Time `json:"subscription_end"`
	// WebhookURL is empty when the organization does not subscribe to
	// status notifications.
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// IsSubscriptionActive reports whether billing considers the tenant active.
func (o *Organization) IsSubscriptionActive() bool {
	return o.SubscriptionStatus == SubscriptionActive
}
