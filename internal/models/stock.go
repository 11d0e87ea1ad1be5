package models

import "time"

// Stock is the aggregate book-level quantity, maintained alongside the per-bin
// quantities in the same transaction.
type Stock struct {
	BookID    string    `json:"bookID"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}
