package domain

import "time"

// CartLine is a single pre-checkout selection. Lines are unique per
// (ProductID, Size) pair; adding the same pair again merges quantities.
type CartLine struct {
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// CartItem is a cart line resolved against the catalog.
type CartItem struct {
	CartLine
	Product *Product `json:"product"`
}
