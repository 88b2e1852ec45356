package domain

import (
	"strconv"
	"time"
)

// Product is the catalog aggregate. Slug is unique and derived from Name;
// SKU is unique when set.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       Money     `json:"price"`
	Stock       int       `json:"stock"`
	Brand       *string   `json:"brand"`
	Size        *string   `json:"size"`
	Color       *string   `json:"color"`
	SKU         *string   `json:"sku"`
	Slug        string    `json:"slug"`
	CategoryID  *int64    `json:"categoryId"`
	Category    *Category `json:"category"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CanonicalPath is the self-healing public path of the product.
func (p *Product) CanonicalPath() string {
	return "/p/" + strconv.FormatInt(p.ID, 10) + "-" + p.Slug
}

// TagIDs returns the ids of the attached tags in order.
func (p *Product) TagIDs() []int64 {
	ids := make([]int64, len(p.Tags))
	for i, t := range p.Tags {
		ids[i] = t.ID
	}
	return ids
}

// Related collections hydrated alongside products.
const (
	IncludeCategory = "category"
	IncludeTags     = "tags"
)

// ProductFilter is the storage-independent search specification produced from
// listing query parameters. Zero values mean "no constraint".
type ProductFilter struct {
	Search       string
	PriceMin     *Money
	PriceMax     *Money
	Brand        string
	Size         string
	Color        string
	CategoryID   *int64
	CategoryName string
	TagIDs       []int64
	Includes     []string
	Page         int
	Limit        int
	Offset       int
}

// ProductPage is one page of a product search.
type ProductPage struct {
	Items []*Product
	Total int64
	Page  int
	Limit int
}
