// Package domain holds domain primitives shared across the emission core.
// Parsing enforces validity at trust boundaries so downstream code can treat
// these types as always well-formed.
package domain

import (
	"github.com/google/uuid"

	dErrors "tributo/pkg/domain-errors"
)

// OrgID identifies a tenant organization.
type OrgID uuid.UUID

// ParseOrgID validates and returns an OrgID.
// Rejects empty, malformed, and nil UUIDs.
func ParseOrgID(s string) (OrgID, error) {
	if s == "" {
		return OrgID{}, dErrors.New(dErrors.CodeInvalidInput, "org_id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return OrgID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "org_id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return OrgID{}, dErrors.New(dErrors.CodeInvalidInput, "org_id cannot be the nil UUID")
	}
	return OrgID(parsed), nil
}

// NewOrgID generates a fresh random OrgID.
func NewOrgID() OrgID {
	return OrgID(uuid.New())
}

func (o OrgID) String() string {
	return uuid.UUID(o).String()
}

// IsNil reports whether the ID is the zero value.
func (o OrgID) IsNil() bool {
	return uuid.UUID(o) == uuid.Nil
}
