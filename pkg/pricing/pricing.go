// Package pricing derives checkout totals from catalog snapshots and store
// configuration. It performs no I/O; callers resolve products and persist
// results.
package pricing

import (
	"math"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
)

// Line pairs a resolved product with the requested quantity.
type Line struct {
	Product  *models.Product
	Quantity int
}

// Quote is the priced result of a checkout attempt.
// Invariant: Total == max(0, Subtotal+Tax+ShippingCost-Discount) to 2dp.
type Quote struct {
	Items        []models.OrderItem
	Subtotal     float64
	ShippingCost float64
	Tax          float64
	Discount     float64
	Total        float64
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate prices an ordered list of lines. Any line with insufficient
// stock fails the whole quote; no partial orders. The coupon, when non-nil,
// must already be validated by the caller.
func Calculate(lines []Line, shipping models.ShippingConfig, tax models.TaxConfig, coupon *models.Coupon) (*Quote, error) {
	q := &Quote{Items: make([]models.OrderItem, 0, len(lines))}

	for _, line := range lines {
		p := line.Product
		if line.Quantity < 1 {
			return nil, apperrors.Validation("quantity must be at least 1")
		}
		if p.Stock < line.Quantity {
			return nil, apperrors.InsufficientStock("Insufficient stock for product: %s", p.Name)
		}
		unit := p.UnitPrice()
		q.Items = append(q.Items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  line.Quantity,
			Price:     unit,
			Image:     p.Image(),
		})
		q.Subtotal += unit * float64(line.Quantity)
	}
	q.Subtotal = Round2(q.Subtotal)

	if q.Subtotal < shipping.FreeThreshold {
		q.ShippingCost = shipping.StandardRate
	}

	if coupon != nil {
		q.Discount = Round2(coupon.DiscountFor(q.Subtotal))
	}

	if tax.Active && tax.Rate > 0 {
		taxable := q.Subtotal - q.Discount
		if taxable < 0 {
			taxable = 0
		}
		q.Tax = Round2(taxable * tax.Rate / 100)
	}

	q.Total = Round2(q.Subtotal + q.Tax + q.ShippingCost - q.Discount)
	if q.Total < 0 {
		q.Total = 0
	}
	return q, nil
}
