package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
)

type CouponRepository struct {
	col *mongo.Collection
}

func (r *CouponRepository) Insert(ctx context.Context, c *models.Coupon) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("coupon code %s already exists", c.Code)
		}
		return err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *CouponRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	var c models.Coupon
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Coupon not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindActiveByCode matches the exact code with an Active status flag. The
// caller still has to check usability (expiry, usage cap).
func (r *CouponRepository) FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := r.col.FindOne(ctx, bson.M{
		"code":   code,
		"status": models.CouponStatusActive,
	}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Invalid or inactive coupon")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CouponRepository) Find(ctx context.Context, q *query.Query) ([]*models.Coupon, int64, error) {
	total, err := r.col.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	cursor, err := r.col.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var coupons []*models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

func (r *CouponRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Coupon, error) {
	set["updatedAt"] = time.Now()
	var c models.Coupon
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Coupon not found")
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("coupon code already in use")
		}
		return nil, err
	}
	return &c, nil
}

func (r *CouponRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Coupon not found")
	}
	return nil
}

// Redeem increments usedCount in one conditional update gated on the coupon
// still being redeemable. Two concurrent redemptions of a coupon one use
// away from its cap cannot both pass the gate.
func (r *CouponRepository) Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	var c models.Coupon
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{
			"code":      code,
			"status":    models.CouponStatusActive,
			"expiresAt": bson.M{"$gt": now},
			"$or": bson.A{
				bson.M{"maxUses": bson.M{"$exists": false}},
				bson.M{"maxUses": 0},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}}},
			},
		},
		bson.M{
			"$inc": bson.M{"usedCount": 1},
			"$set": bson.M{"updatedAt": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.Validation("Coupon is expired or fully used")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
