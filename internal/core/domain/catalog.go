package domain

import "time"

// Category groups products. Name is unique.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tag is a flat label attached to products through ProductTag. Name is unique.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductTag is one row of the product/tag association.
type ProductTag struct {
	ProductID int64
	TagID     int64
}
