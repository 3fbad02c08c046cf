package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

const (
	CouponStatusActive   = "Active"
	CouponStatusExpired  = "Expired"
	CouponStatusDisabled = "Disabled"
)

type Coupon struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Type      string             `bson:"type" json:"type"`
	Value     float64            `bson:"value" json:"value"`
	MinOrder  float64            `bson:"minOrder" json:"minOrder"`
	// MaxUses of 0 means no usage cap.
	MaxUses   int       `bson:"maxUses,omitempty" json:"maxUses,omitempty"`
	UsedCount int       `bson:"usedCount" json:"usedCount"`
	Status    string    `bson:"status" json:"status"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsUsable reports whether the coupon can still be redeemed at the given
// time. A stale Active status flag does not make an expired or fully used
// coupon usable.
func (c *Coupon) IsUsable(now time.Time) bool {
	if c.Status != CouponStatusActive {
		return false
	}
	if !now.Before(c.ExpiresAt) {
		return false
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	return true
}

// DiscountFor computes the discount this coupon grants on a subtotal,
// capped so it never exceeds the subtotal.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	var discount float64
	switch c.Type {
	case CouponTypePercentage:
		discount = subtotal * c.Value / 100
	case CouponTypeFixed:
		discount = c.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
