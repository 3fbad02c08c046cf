package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product statuses. Out of Stock and Low Stock are derived from the stock
// count; Draft is only ever set by catalog management.
const (
	ProductStatusActive     = "Active"
	ProductStatusDraft      = "Draft"
	ProductStatusOutOfStock = "Out of Stock"
	ProductStatusLowStock   = "Low Stock"
)

// LowStockThreshold is the stock level at or below which a product is
// flagged Low Stock.
const LowStockThreshold = 5

var ProductCategories = []string{"Sunglasses", "Eyeglasses", "Lenses", "Accessories"}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	SKU             string             `bson:"sku" json:"sku"`
	Price           float64            `bson:"price" json:"price"`
	SalePrice       float64            `bson:"salePrice,omitempty" json:"salePrice,omitempty"`
	Currency        string             `bson:"currency" json:"currency"`
	Stock           int                `bson:"stock" json:"stock"`
	Category        string             `bson:"category" json:"category"`
	Brand           string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Status          string             `bson:"status" json:"status"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	MainImage       string             `bson:"mainImage,omitempty" json:"mainImage,omitempty"`
	RatingsAverage  float64            `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int                `bson:"ratingsQuantity" json:"ratingsQuantity"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UnitPrice is the effective selling price: the sale price when one is set,
// the list price otherwise.
func (p *Product) UnitPrice() float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

// Image returns the product's display image, falling back to the first
// gallery image when no main image is set.
func (p *Product) Image() string {
	if p.MainImage == "" && len(p.Images) > 0 {
		return p.Images[0]
	}
	return p.MainImage
}

// StockStatus derives the status label for a given stock level. Draft is
// never auto-changed; a previously depleted product is promoted back to
// Active once stock recovers.
func StockStatus(previous string, stock int) string {
	if previous == ProductStatusDraft {
		return previous
	}
	switch {
	case stock == 0:
		return ProductStatusOutOfStock
	case stock <= LowStockThreshold:
		return ProductStatusLowStock
	case previous == ProductStatusOutOfStock || previous == ProductStatusLowStock:
		return ProductStatusActive
	default:
		return previous
	}
}

func ValidCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}
