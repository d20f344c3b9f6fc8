// Package clave builds the 50-digit document key (clave) and the 20-digit
// consecutive number fragment (consecutivo) mandated by the v4.4 wire
// specification.
//
// Layout of the clave, all fields fixed-width digits:
//
//	country(3) day(2) month(2) year(2) issuer(12) consecutivo(20) situation(1) security(8)
//
// Layout of the consecutivo:
//
//	branch(3) terminal(5) type(2) sequence(10)
//
// Generation is a pure function of its parameters plus the emission date; it
// performs no I/O and allocates nothing shared.
package clave

import (
	"fmt"
	"strings"
	"time"

	id "tributo/pkg/domain"
	dErrors "tributo/pkg/domain-errors"
)

// countryCode is the ITU numeric country prefix for Costa Rica.
const countryCode = "506"

const (
	issuerWidth   = 12
	sequenceWidth = 10
	securityWidth = 8
	claveWidth    = 50
)

// Params are the structural inputs for a clave.
type Params struct {
	Branch       id.BranchCode
	Terminal     id.TerminalCode
	DocumentType id.DocumentType
	// Sequence is the allocator-issued consecutive number, 1-based.
	Sequence int64
	// IssuerID is the issuer tax identifier. Values longer than 12 digits
	// are truncated to the rightmost 12; shorter values are zero-padded.
	IssuerID  string
	Situation id.Situation
	// SecurityCode is the 8-digit code; shorter values are zero-padded.
	SecurityCode string
	// EmissionDate stamps the day/month/year fields. The zero value means
	// the current wall-clock date.
	EmissionDate time.Time
}

// Generate composes the full 50-digit clave.
//
// The final length check is a defensive invariant: it should be unreachable
// given correct field padding, but guards against field-width drift. A
// violation is a programming defect, never retried.
func Generate(p Params) (string, error) {
	issuer, err := normalizeIssuer(p.IssuerID)
	if err != nil {
		return "", err
	}
	security, err := normalizeDigits(p.SecurityCode, securityWidth, "security code")
	if err != nil {
		return "", err
	}
	if !p.DocumentType.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type code: %q", p.DocumentType)
	}
	if _, err := id.ParseSituation(p.Situation.String()); err != nil {
		return "", err
	}

	consecutive, err := Consecutive(p.Branch, p.Terminal, p.DocumentType, p.Sequence)
	if err != nil {
		return "", err
	}

	date := p.EmissionDate
	if date.IsZero() {
		date = time.Now()
	}

	key := countryCode +
		fmt.Sprintf("%02d%02d%02d", date.Day(), int(date.Month()), date.Year()%100) +
		issuer +
		consecutive +
		p.Situation.String() +
		security

	if len(key) != claveWidth {
		return "", dErrors.Newf(dErrors.CodeInvariantViolation,
			"composed clave is %d digits, want %d", len(key), claveWidth)
	}
	return key, nil
}

// Consecutive composes the 20-digit consecutivo embedded both in the clave
// and in the document body.
func Consecutive(branch id.BranchCode, terminal id.TerminalCode, docType id.DocumentType, sequence int64) (string, error) {
	if sequence <= 0 {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "sequence must be positive, got %d", sequence)
	}
	seq := fmt.Sprintf("%0*d", sequenceWidth, sequence)
	if len(seq) > sequenceWidth {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "sequence %d exceeds %d digits", sequence, sequenceWidth)
	}

	branchCode, err := id.ParseBranchCode(branch.String())
	if err != nil {
		return "", err
	}
	terminalCode, err := id.ParseTerminalCode(terminal.String())
	if err != nil {
		return "", err
	}
	if !docType.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type code: %q", docType)
	}

	return branchCode.String() + terminalCode.String() + docType.String() + seq, nil
}

// normalizeIssuer pads or truncates the issuer tax ID to exactly 12 digits.
// Truncation keeps the rightmost digits so the discriminating suffix of long
// juridical IDs survives.
func normalizeIssuer(raw string) (string, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "issuer tax ID cannot be empty")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", dErrors.Newf(dErrors.CodeInvalidInput, "issuer tax ID %q contains non-digit characters", raw)
		}
	}
	if len(raw) > issuerWidth {
		return raw[len(raw)-issuerWidth:], nil
	}
	return strings.Repeat("0", issuerWidth-len(raw)) + raw, nil
}

func normalizeDigits(raw string, width int, field string) (string, error) {
	if raw == "" {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", field)
	}
	if len(raw) > width {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s %q exceeds %d digits", field, raw, width)
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s %q contains non-digit characters", field, raw)
		}
	}
	return strings.Repeat("0", width-len(raw)) + raw, nil
}
