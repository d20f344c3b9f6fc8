package access

import (
	id "tributo/pkg/domain"
)

// Plan describes the emission entitlements of a subscription tier.
type Plan struct {
	Tag string
	// MonthlyQuota caps documents per calendar month. Zero means unmetered.
	MonthlyQuota int
	// AllowedTypes restricts emittable document types. Nil means all types.
	AllowedTypes map[id.DocumentType]bool
}

// Allows reports whether the plan covers the document type.
func (p Plan) Allows(docType id.DocumentType) bool {
	if p.AllowedTypes == nil {
		return true
	}
	return p.AllowedTypes[docType]
}

// Metered reports whether the plan enforces a monthly quota.
func (p Plan) Metered() bool {
	return p.MonthlyQuota > 0
}

// plans is the immutable tier catalog, loaded at process start. Billing owns
// which tag an organization carries; this table owns what the tag means for
// emission.
var plans = map[string]Plan{
	"free": {
		Tag:          "free",
		MonthlyQuota: 25,
		AllowedTypes: map[id.DocumentType]bool{
			id.DocumentTypeInvoice: true,
			id.DocumentTypeTicket:  true,
		},
	},
	"starter": {
		Tag:          "starter",
		MonthlyQuota: 150,
		AllowedTypes: map[id.DocumentType]bool{
			id.DocumentTypeInvoice:    true,
			id.DocumentTypeTicket:     true,
			id.DocumentTypeCreditNote: true,
			id.DocumentTypeDebitNote:  true,
		},
	},
	"pro": {
		Tag:          "pro",
		MonthlyQuota: 2500,
	},
	"unlimited": {
		Tag: "unlimited",
	},
}

// ResolvePlan maps a tier tag to its entitlements. Unknown tags resolve to
// the free tier so a mistagged organization degrades instead of gaining
// unmetered access.
func ResolvePlan(tag string) Plan {
	if plan, ok := plans[tag]; ok {
		return plan
	}
	return plans["free"]
}
