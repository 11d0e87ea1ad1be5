package models

type Shelf struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Bin is the smallest physical storage unit on a shelf. QuantityCurrent and
// QuantityMaxLimit are only ever written by the stock mutation path inside a
// workflow transition.
type Bin struct {
	ID               string `json:"id"`
	ShelfID          string `json:"shelfID"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	QuantityCurrent  int    `json:"quantityCurrent"`
	QuantityMaxLimit int    `json:"quantityMaxLimit"`
}

// BinCapacity is the read model returned by GET /books/:id/bins: a bin plus
// how many units of the book it currently holds and how much free space is left.
type BinCapacity struct {
	Bin
	BookQuantity int `json:"bookQuantity"`
	Available    int `json:"available"`
}
