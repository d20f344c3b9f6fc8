package domain

import (
	"strings"

	dErrors "tributo/pkg/domain-errors"
)

// BranchCode is the three-digit branch (sucursal) identifier and
// TerminalCode the five-digit point-of-sale terminal identifier. Both are
// fixed-width digit strings on the wire; parsing left-pads short inputs with
// zeros so callers may pass "1" for branch "001".
type (
	BranchCode   string
	TerminalCode string
)

const (
	DefaultBranch   BranchCode   = "001"
	DefaultTerminal TerminalCode = "00001"

	branchWidth   = 3
	terminalWidth = 5
)

// ParseBranchCode validates, zero-pads, and returns a BranchCode.
// An empty input resolves to DefaultBranch.
func ParseBranchCode(s string) (BranchCode, error) {
	if s == "" {
		return DefaultBranch, nil
	}
	padded, err := padDigits(s, branchWidth)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid branch code")
	}
	return BranchCode(padded), nil
}

// ParseTerminalCode validates, zero-pads, and returns a TerminalCode.
// An empty input resolves to DefaultTerminal.
func ParseTerminalCode(s string) (TerminalCode, error) {
	if s == "" {
		return DefaultTerminal, nil
	}
	padded, err := padDigits(s, terminalWidth)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid terminal code")
	}
	return TerminalCode(padded), nil
}

func (b BranchCode) String() string   { return string(b) }
func (t TerminalCode) String() string { return string(t) }

func padDigits(s string, width int) (string, error) {
	if len(s) > width {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "code %q exceeds %d digits", s, width)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", dErrors.Newf(dErrors.CodeInvalidInput, "code %q contains non-digit characters", s)
		}
	}
	return strings.Repeat("0", width-len(s)) + s, nil
}
