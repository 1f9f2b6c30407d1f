package domain

import "time"

// Product prices are whole rupees, stored as int64 to keep arithmetic exact.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Images      []string  `json:"images"`
	Video       string    `json:"video,omitempty"`
	Price       int64     `json:"price"`
	Sizes       []string  `json:"sizes"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FirstImage returns the product's primary image, or "" when it has none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasSize reports whether size is one of the product's selectable sizes.
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
