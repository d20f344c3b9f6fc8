package access

import (
	"fmt"
	"time"

	id "tributo/pkg/domain"
)

// Business-rule denials. These surface verbatim to the end user and are
// never retried automatically, so each carries enough detail to render a
// useful message.

// SubscriptionExpiredError means the subscription lapsed past its grace
// window and billing has not reactivated it.
type SubscriptionExpiredError struct {
	ExpiredAt time.Time
}

func (e *SubscriptionExpiredError) Error() string {
	return fmt.Sprintf("subscription expired on %s and the grace period has passed", e.ExpiredAt.Format("2006-01-02"))
}

// QuotaExceededError means the organization hit its plan's monthly document
// quota.
type QuotaExceededError struct {
	Plan  string
	Quota int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly quota of %d documents reached on plan %q", e.Quota, e.Plan)
}

// PlanFeatureError means the plan does not cover the requested document
// type.
type PlanFeatureError struct {
	Plan         string
	DocumentType id.DocumentType
}

func (e *PlanFeatureError) Error() string {
	return fmt.Sprintf("plan %q does not include %s emission", e.Plan, e.DocumentType.Name())
}
