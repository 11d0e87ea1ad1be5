package models

import "time"

// OrderItem is one line of an import or export order. For export orders the
// allocations say which bins the quantity is picked from; for import orders
// they are assigned at WMS approval and say which bins receive the stock.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderID"`
	BookID      string          `json:"bookID"`
	Quantity    int             `json:"quantity"`
	UnitPrice   float64         `json:"unitPrice"`
	Note        string          `json:"note"`
	Allocations []BinAllocation `json:"allocations"`
}

// BinAllocation assigns part of an order item's quantity to one bin.
type BinAllocation struct {
	ID          string `json:"id"`
	OrderItemID string `json:"orderItemID"`
	BinID       string `json:"binID"`
	Quantity    int    `json:"quantity"`
}

type ExportOrder struct {
	ID              string      `json:"id"`
	Status          Status      `json:"status"`
	CreatedBy       string      `json:"createdBy"`
	CreatedDate     time.Time   `json:"createdDate"`
	ExportDate      time.Time   `json:"exportDate"`
	RecipientName   string      `json:"recipientName"`
	RecipientPhone  string      `json:"recipientPhone"`
	ShippingAddress string      `json:"shippingAddress"`
	Note            string      `json:"note"`
	Items           []OrderItem `json:"items"`
}

type ImportOrder struct {
	ID           string      `json:"id"`
	Status       Status      `json:"status"`
	CreatedBy    string      `json:"createdBy"`
	CreatedDate  time.Time   `json:"createdDate"`
	ImportDate   time.Time   `json:"importDate"`
	SupplierName string      `json:"supplierName"`
	Note         string      `json:"note"`
	Items        []OrderItem `json:"items"`
	Faults       []FaultBook `json:"faults"`
}
