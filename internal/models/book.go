package models

import "time"

type Book struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	CategoryID string    `json:"categoryID"`
	Publisher  string    `json:"publisher"`
	Price      float64   `json:"price"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
