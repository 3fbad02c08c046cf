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

type OrderRepository struct {
	col *mongo.Collection
}

func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("order number %s already exists", o.OrderNumber)
		}
		return err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Find(ctx context.Context, q *query.Query) ([]*models.Order, int64, error) {
	total, err := r.col.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	cursor, err := r.col.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) FindByCustomer(ctx context.Context, customer primitive.ObjectID) ([]*models.Order, error) {
	cursor, err := r.col.Find(ctx,
		bson.M{"customer": customer},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []*models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error) {
	set["updatedAt"] = time.Now()
	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete removes an order. Used by explicit admin deletes and by the
// checkout orchestrator's compensating rollback.
func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Order not found")
	}
	return nil
}

// MarkPaidByIntent flips the order matching a payment intent to Paid /
// Processing. Returns NotFound when no order carries the intent id.
func (r *OrderRepository) MarkPaidByIntent(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"paymentIntentId": paymentIntentID},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentStatusPaid,
			"status":        models.OrderStatusProcessing,
			"updatedAt":     time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Order not found for payment intent")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
