package domain

// DocumentStatus tracks a document through the authority's asynchronous
// acceptance lifecycle.
type DocumentStatus string

const (
	StatusPending           DocumentStatus = "pending"
	StatusReceived          DocumentStatus = "received"
	StatusAccepted          DocumentStatus = "accepted"
	StatusPartiallyAccepted DocumentStatus = "partially_accepted"
	StatusRejected          DocumentStatus = "rejected"
	StatusError             DocumentStatus = "error"
)

func (s DocumentStatus) String() string {
	return string(s)
}

// Terminal reports whether the lifecycle can still advance.
func (s DocumentStatus) Terminal() bool {
	switch s {
	case StatusAccepted, StatusPartiallyAccepted, StatusRejected:
		return true
	}
	return false
}
