// Package access gates document emission on subscription state and
// plan-specific monthly quota.
//
// The gate is read-only: the monthly count is derived by querying documents
// that actually persisted, so it never drifts from reality the way a
// decrement counter would. Passing the gate has no side effect.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tributo/internal/organization"
	id "tributo/pkg/domain"
	dErrors "tributo/pkg/domain-errors"
	"tributo/pkg/platform/sentinel"
	"tributo/pkg/requestcontext"
)

// GracePeriod is the window after subscription expiry during which emission
// is still tentatively allowed pending payment confirmation.
const GracePeriod = 24 * time.Hour

// DocumentCounter derives current-month usage from persisted documents.
type DocumentCounter interface {
	// CountCreatedSince returns how many documents the organization has
	// created at or after the given instant.
	CountCreatedSince(ctx context.Context, orgID id.OrgID, since time.Time) (int, error)
}

type Enforcer struct {
	orgs   organization.Store
	docs   DocumentCounter
	logger *slog.Logger
}

type Option func(*Enforcer)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Enforcer) {
		e.logger = logger
	}
}

func New(orgs organization.Store, docs DocumentCounter, opts ...Option) (*Enforcer, error) {
	if orgs == nil {
		return nil, fmt.Errorf("organization store is required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document counter is required")
	}

	e := &Enforcer{
		orgs:   orgs,
		docs:   docs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// VerifyAccess checks, in order: subscription expiry (with grace), monthly
// quota, and plan feature coverage. Returns nil when emission may proceed.
func (e *Enforcer) VerifyAccess(ctx context.Context, orgID id.OrgID, docType id.DocumentType) error {
	if orgID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "org_id is required")
	}
	if !docType.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type code: %q", docType)
	}

	org, err := e.orgs.GetOrganization(ctx, orgID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "organization %s not found", orgID)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "organization lookup failed")
	}

	now := requestcontext.Now(ctx)

	if !org.SubscriptionEnd.IsZero() &&
		now.After(org.SubscriptionEnd.Add(GracePeriod)) &&
		!org.IsSubscriptionActive() {
		return &SubscriptionExpiredError{ExpiredAt: org.SubscriptionEnd}
	}

	plan := ResolvePlan(org.Plan)
	if plan.Tag != org.Plan {
		e.logger.Warn("organization carries unknown plan tag, degraded to free tier",
			"org_id", orgID.String(), "plan", org.Plan)
	}

	if plan.Metered() {
		count, err := e.docs.CountCreatedSince(ctx, orgID, monthStart(now))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "monthly usage count failed")
		}
		if count >= plan.MonthlyQuota {
			return &QuotaExceededError{Plan: plan.Tag, Quota: plan.MonthlyQuota}
		}
	}

	if !plan.Allows(docType) {
		return &PlanFeatureError{Plan: plan.Tag, DocumentType: docType}
	}

	return nil
}

// monthStart returns the first instant of now's calendar month in now's
// location.
func monthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
