package orderbox

import (
	"encoding/json"
	"testing"
	"time"
)

func TestOrderDraftValidate(t *testing.T) {
	validItems := json.RawMessage(`[{"product_id":"p1","qty":2}]`)

	cases := []struct {
		name  string
		draft OrderDraft
		err   error
	}{
		{
			name:  "missing outlet",
			draft: OrderDraft{EmployeeName: "sam", Items: validItems},
			err:   ErrOutletRequired,
		},
		{
			name:  "missing employee",
			draft: OrderDraft{OutletID: "o1", Items: validItems},
			err:   ErrEmployeeRequired,
		},
		{
			name:  "missing items",
			draft: OrderDraft{OutletID: "o1", EmployeeName: "sam"},
			err:   ErrItemsRequired,
		},
		{
			name:  "invalid items",
			draft: OrderDraft{OutletID: "o1", EmployeeName: "sam", Items: json.RawMessage(`[`)},
			err:   ErrInvalidItems,
		},
		{
			name:  "valid",
			draft: OrderDraft{OutletID: "o1", EmployeeName: "sam", Items: validItems},
			err:   nil,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			if tc.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.err != nil && err != tc.err {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestValidateDraftSkipJSON(t *testing.T) {
	draft := OrderDraft{
		OutletID:     "o1",
		EmployeeName: "sam",
		Items:        json.RawMessage(`[`),
	}

	if err := ValidateDraft(draft, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestPendingOrderDue(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	order := PendingOrder{NextAttemptAtMillis: now.UnixMilli()}

	if !order.Due(now) {
		t.Fatalf("expected order due at its scheduled time")
	}
	if order.Due(now.Add(-time.Millisecond)) {
		t.Fatalf("expected order not due before its scheduled time")
	}
	if !order.Due(now.Add(time.Hour)) {
		t.Fatalf("expected order due after its scheduled time")
	}
}

func TestPendingOrderTimes(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	next := created.Add(30 * time.Second)
	order := PendingOrder{
		CreatedAtMillis:     created.UnixMilli(),
		NextAttemptAtMillis: next.UnixMilli(),
	}

	if !order.CreatedAt().Equal(created) {
		t.Fatalf("expected created at %v, got %v", created, order.CreatedAt())
	}
	if !order.NextAttemptAt().Equal(next) {
		t.Fatalf("expected next attempt at %v, got %v", next, order.NextAttemptAt())
	}
}
