package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
)

// CouponFilterFields is the list-endpoint filter allow-list.
var CouponFilterFields = map[string]bool{
	"code":      true,
	"type":      true,
	"status":    true,
	"value":     true,
	"minOrder":  true,
	"usedCount": true,
	"expiresAt": true,
}

type CouponService struct {
	coupons CouponStore
}

func NewCouponService(coupons CouponStore) *CouponService {
	return &CouponService{coupons: coupons}
}

func (s *CouponService) Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := s.validate(c); err != nil {
		return nil, err
	}
	if c.Status == "" {
		c.Status = models.CouponStatusActive
	}
	if err := s.coupons.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CouponService) List(ctx context.Context, q *query.Query) ([]*models.Coupon, int64, error) {
	return s.coupons.Find(ctx, q)
}

func (s *CouponService) Get(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	return s.coupons.FindByID(ctx, id)
}

func (s *CouponService) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Coupon, error) {
	if code, ok := set["code"].(string); ok {
		set["code"] = strings.ToUpper(strings.TrimSpace(code))
	}
	return s.coupons.Update(ctx, id, set)
}

func (s *CouponService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.coupons.Delete(ctx, id)
}

// Validate checks a code against an order amount without consuming a use.
// Calling it any number of times leaves usedCount untouched.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount float64) (*models.Coupon, error) {
	coupon, err := s.coupons.FindActiveByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if !coupon.IsUsable(time.Now()) {
		return nil, apperrors.Validation("Coupon is expired or fully used")
	}
	if coupon.MinOrder > 0 && orderAmount < coupon.MinOrder {
		return nil, apperrors.Validation("Minimum order amount of %g required", coupon.MinOrder)
	}
	return coupon, nil
}

// Redeem consumes one use. The usage gate and the increment are a single
// conditional update in the store.
func (s *CouponService) Redeem(ctx context.Context, code string) (*models.Coupon, error) {
	return s.coupons.Redeem(ctx, strings.ToUpper(strings.TrimSpace(code)), time.Now())
}

func (s *CouponService) validate(c *models.Coupon) error {
	if len(c.Code) < 3 || len(c.Code) > 20 {
		return apperrors.Validation("coupon code must be 3-20 characters")
	}
	switch c.Type {
	case models.CouponTypePercentage:
		if c.Value < 0 || c.Value > 100 {
			return apperrors.Validation("percentage coupon value must be between 0 and 100")
		}
	case models.CouponTypeFixed:
		if c.Value < 0 {
			return apperrors.Validation("coupon value cannot be negative")
		}
	default:
		return apperrors.Validation("%s is not a valid coupon type", c.Type)
	}
	if c.MinOrder < 0 {
		return apperrors.Validation("minimum order value cannot be negative")
	}
	if c.MaxUses < 0 {
		return apperrors.Validation("maximum uses cannot be negative")
	}
	if c.ExpiresAt.IsZero() {
		return apperrors.Validation("expiry date is required")
	}
	return nil
}
