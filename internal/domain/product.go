package domain

import "time"

// ProductID is the hex form of a product's document id.
type ProductID string

type Product struct {
	ID                   ProductID `json:"id"`
	Name                 string    `json:"name"`
	LocalizedName        string    `json:"localizedName"`
	Description          string    `json:"description"`
	LocalizedDescription string    `json:"localizedDescription"`
	Price                float64   `json:"price"`
	Stock                int       `json:"stock"`
	Image                string    `json:"image,omitempty"`
	Category             string    `json:"category"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// ProductPatch carries the fields of a partial product update. Nil means unchanged.
type ProductPatch struct {
	Name                 *string
	LocalizedName        *string
	Description          *string
	LocalizedDescription *string
	Price                *float64
	Stock                *int
	Image                *string
	Category             *string
}

// Apply copies every set field of the patch onto p.
func (u ProductPatch) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.LocalizedName != nil {
		p.LocalizedName = *u.LocalizedName
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.LocalizedDescription != nil {
		p.LocalizedDescription = *u.LocalizedDescription
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
}

func (u ProductPatch) IsEmpty() bool {
	return u.Name == nil && u.LocalizedName == nil && u.Description == nil &&
		u.LocalizedDescription == nil && u.Price == nil && u.Stock == nil &&
		u.Image == nil && u.Category == nil
}
