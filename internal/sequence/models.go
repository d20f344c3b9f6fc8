package sequence

import (
	id "tributo/pkg/domain"
)

// CounterKey is the composite identity of one consecutive-number series.
// Every distinct key owns an independent, gap-free series starting at 1.
type CounterKey struct {
	OrgID        id.OrgID
	Branch       id.BranchCode
	Terminal     id.TerminalCode
	DocumentType id.DocumentType
}
