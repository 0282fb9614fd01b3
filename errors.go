package orderbox

import "errors"

var (
	// ErrOutletRequired is returned when OrderDraft.OutletID is empty.
	ErrOutletRequired = errors.New("orderbox outlet id is required")
	// ErrEmployeeRequired is returned when OrderDraft.EmployeeName is empty.
	ErrEmployeeRequired = errors.New("orderbox employee name is required")
	// ErrItemsRequired is returned when OrderDraft.Items is empty.
	ErrItemsRequired = errors.New("orderbox items snapshot is required")
	// ErrInvalidItems is returned when OrderDraft.Items is not valid JSON.
	ErrInvalidItems = errors.New("orderbox items snapshot must be valid JSON")
	// ErrLineKeyRequired is returned when CartLine.Key is empty.
	ErrLineKeyRequired = errors.New("orderbox cart line key is required")
	// ErrLineProductRequired is returned when CartLine.ProductID is empty.
	ErrLineProductRequired = errors.New("orderbox cart line product id is required")
	// ErrNegativeQty is returned when CartLine.Qty is below zero.
	ErrNegativeQty = errors.New("orderbox cart line quantity must not be negative")
	// ErrOrderNotFound signals that a pending order no longer exists.
	ErrOrderNotFound = errors.New("orderbox pending order not found")
	// ErrSchedulerPanic indicates a scheduler loop panic.
	ErrSchedulerPanic = errors.New("orderbox scheduler panic")
)
