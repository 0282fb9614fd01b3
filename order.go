package orderbox

import (
	"encoding/json"
	"time"
)

// OrderDraft describes a new order submission to be enqueued.
type OrderDraft struct {
	// OutletID identifies the ordering outlet.
	OutletID string
	// EmployeeName records who placed the order.
	EmployeeName string
	// ClientRef is an optional client-generated reference the backend may
	// use for dedup. If empty, the storage backend assigns a UUID.
	ClientRef string
	// Items is the serialized cart snapshot at submission time. The queue
	// never parses it; it is handed to the Submitter verbatim.
	Items json.RawMessage
}

// Validate checks required fields and JSON validity of the items snapshot.
func (d OrderDraft) Validate() error {
	return ValidateDraft(d, true)
}

// ValidateDraft validates a draft with optional JSON validation for the
// items snapshot. Skipping validation is for callers that store the
// snapshot in a non-JSON encoding.
func ValidateDraft(draft OrderDraft, validateItems bool) error {
	if draft.OutletID == "" {
		return ErrOutletRequired
	}
	if draft.EmployeeName == "" {
		return ErrEmployeeRequired
	}
	if len(draft.Items) == 0 {
		return ErrItemsRequired
	}
	if validateItems && !json.Valid(draft.Items) {
		return ErrInvalidItems
	}

	return nil
}

// PendingOrder is a stored submission awaiting delivery.
//
// Attempts only grows and NextAttemptAtMillis only moves forward;
// CreatedAtMillis is immutable. Deleting the row is the only terminal
// transition, whether delivered or abandoned.
type PendingOrder struct {
	ID                  int64
	OutletID            string
	EmployeeName        string
	ClientRef           string
	Items               json.RawMessage
	CreatedAtMillis     int64
	Attempts            int
	NextAttemptAtMillis int64
}

// Due reports whether the order is eligible for a submission attempt at now.
func (p PendingOrder) Due(now time.Time) bool {
	return p.NextAttemptAtMillis <= now.UnixMilli()
}

// NextAttemptAt returns the scheduled retry time.
func (p PendingOrder) NextAttemptAt() time.Time {
	return time.UnixMilli(p.NextAttemptAtMillis).UTC()
}

// CreatedAt returns the enqueue time.
func (p PendingOrder) CreatedAt() time.Time {
	return time.UnixMilli(p.CreatedAtMillis).UTC()
}
