package models

// FaultBook records units of a book found defective during the post-receipt
// check of an import order. Faulted units are excluded from bin allocation.
type FaultBook struct {
	ID       string `json:"id"`
	OrderID  string `json:"orderID"`
	BookID   string `json:"bookID"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
	PhotoURL string `json:"photoURL,omitempty"`
}
