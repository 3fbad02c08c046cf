package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCouponIsUsable(t *testing.T) {
	now := time.Now()
	base := Coupon{
		Code:      "TEST",
		Type:      CouponTypeFixed,
		Value:     10,
		Status:    CouponStatusActive,
		ExpiresAt: now.Add(time.Hour),
	}

	assert.True(t, base.IsUsable(now))

	expired := base
	expired.ExpiresAt = now.Add(-time.Second)
	assert.False(t, expired.IsUsable(now))

	disabled := base
	disabled.Status = CouponStatusDisabled
	assert.False(t, disabled.IsUsable(now))

	capped := base
	capped.MaxUses = 2
	capped.UsedCount = 2
	assert.False(t, capped.IsUsable(now))

	almostCapped := base
	almostCapped.MaxUses = 2
	almostCapped.UsedCount = 1
	assert.True(t, almostCapped.IsUsable(now))

	uncapped := base
	uncapped.UsedCount = 1 << 20
	assert.True(t, uncapped.IsUsable(now))
}

func TestCouponDiscountFor(t *testing.T) {
	percentage := Coupon{Type: CouponTypePercentage, Value: 10}
	assert.Equal(t, 20.0, percentage.DiscountFor(200))

	fixed := Coupon{Type: CouponTypeFixed, Value: 50}
	assert.Equal(t, 50.0, fixed.DiscountFor(200))

	// Fixed discounts never exceed the subtotal.
	assert.Equal(t, 30.0, fixed.DiscountFor(30))
}
