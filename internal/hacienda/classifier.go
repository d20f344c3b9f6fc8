// Package hacienda interprets tax-authority response codes.
//
// The catalog is a static, immutable mapping loaded at process start. It is
// informational for operator-facing messaging; the orchestrator consults the
// Kind to decide between exponential backoff and terminal failure, but no
// retry logic lives here.
package hacienda

import "fmt"

// Kind classifies how the orchestrator should react to a response code.
type Kind string

const (
	// KindRetryable marks transient authority strain; resubmit the same
	// document with exponential backoff.
	KindRetryable Kind = "retryable"
	// KindTerminal marks failures that need operator intervention; the
	// document must not be resubmitted automatically.
	KindTerminal Kind = "terminal"
	// KindDuplicate marks a clave the authority already holds; resubmitting
	// the same key would be rejected again, so the failure is terminal and
	// the document must not be re-sent under the same clave.
	KindDuplicate Kind = "duplicate"
	// KindUnknown covers codes outside the catalog.
	KindUnknown Kind = "unknown"
)

// Classification is the operator-facing record for one response code.
type Classification struct {
	Code        string
	Title       string
	Description string
	Remediation string
	Kind        Kind
}

var catalog = map[string]Classification{
	"400": {
		Title:       "Malformed submission",
		Description: "The reception endpoint rejected the request envelope as malformed.",
		Remediation: "Inspect the submission payload against the v4.4 schema; correct the document builder before retrying.",
		Kind:        KindTerminal,
	},
	"401": {
		Title:       "Authentication rejected",
		Description: "The authority rejected the access token for this submission.",
		Remediation: "Verify the tax-authority credentials configured for this organization and re-authenticate.",
		Kind:        KindTerminal,
	},
	"403": {
		Title:       "Issuer not authorized",
		Description: "The issuer is not authorized to emit this document class.",
		Remediation: "Confirm the issuer registration with the authority covers this document type.",
		Kind:        KindTerminal,
	},
	"429": {
		Title:       "Authority rate limit",
		Description: "The authority is shedding load and temporarily refusing submissions.",
		Remediation: "Back off exponentially and resubmit; no document changes are needed.",
		Kind:        KindRetryable,
	},
	"500": {
		Title:       "Authority internal failure",
		Description: "The reception backend failed while processing the submission.",
		Remediation: "Back off and resubmit; escalate to the authority help desk if the failure persists.",
		Kind:        KindRetryable,
	},
	"502": {
		Title:       "Authority gateway failure",
		Description: "An intermediary in front of the reception backend returned a bad response.",
		Remediation: "Back off and resubmit; the reception backend itself may be healthy.",
		Kind:        KindRetryable,
	},
	"503": {
		Title:       "Authority unavailable",
		Description: "The reception backend is down or in a maintenance window.",
		Remediation: "Back off and resubmit once the authority publishes service restoration.",
		Kind:        KindRetryable,
	},
	"29": {
		Title:       "Duplicate clave",
		Description: "The authority already holds a document with this clave.",
		Remediation: "Do not resubmit under the same clave; allocate a fresh consecutive number and emit a new document if the original was never accepted.",
		Kind:        KindDuplicate,
	},
	"43": {
		Title:       "Signature mismatch",
		Description: "The XML digital signature failed verification against the registered certificate.",
		Remediation: "Check the signing certificate is current and matches the one registered with the authority; re-sign and emit a new document.",
		Kind:        KindTerminal,
	},
	"44": {
		Title:       "Schema violation",
		Description: "The document body does not validate against the v4.4 XML schema.",
		Remediation: "Correct the document builder output; the same content will be rejected on every retry.",
		Kind:        KindTerminal,
	},
	"95": {
		Title:       "Consecutive out of order",
		Description: "The consecutive number does not follow the issuer's registered series.",
		Remediation: "Audit the sequence counter for this branch/terminal/type series before emitting again.",
		Kind:        KindTerminal,
	},
}

// Classify returns the catalog record for a response code. Unknown codes get
// a generic record that still carries the original code for diagnostics.
func Classify(code string) Classification {
	if c, ok := catalog[code]; ok {
		c.Code = code
		return c
	}
	return Classification{
		Code:        code,
		Title:       "Unrecognized fiscal response",
		Description: fmt.Sprintf("The authority returned code %q, which is not in the response catalog.", code),
		Remediation: "Capture the raw authority response and escalate to engineering; do not resubmit blindly.",
		Kind:        KindUnknown,
	}
}

// Retryable reports whether the orchestrator may resubmit the same document
// for this code.
func (c Classification) Retryable() bool {
	return c.Kind == KindRetryable
}
