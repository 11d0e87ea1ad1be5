package models

// OrderType distinguishes the two workflow variants sharing the status log.
type OrderType string

const (
	OrderTypeImport OrderType = "import"
	OrderTypeExport OrderType = "export"
)

// Status is the workflow state of an order. Which values are legal, and which
// transitions between them, depends on the order type (see internal/workflow).
type Status string

// Export order states.
const (
	StatusNew       Status = "New"
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusShipping  Status = "Shipping"
	StatusCompleted Status = "Completed"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

// Import order states. An import shares StatusNew as its initial state.
const (
	StatusApprove Status = "Approve"
	StatusReceive Status = "Receive"
	StatusDone    Status = "Done"
)
