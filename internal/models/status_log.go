package models

import "time"

// StatusLog is one append-only audit row. Rows are never updated or deleted;
// the ordered sequence per order is the sole source of order history.
type StatusLog struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderID"`
	OrderType OrderType `json:"orderType"`
	Status    Status    `json:"status"`
	ActorID   string    `json:"actorID"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}
