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

type ProductRepository struct {
	col *mongo.Collection
}

// InventorySummary aggregates catalog-wide stock figures. Draft products
// are excluded everywhere except the raw status counts.
type InventorySummary struct {
	TotalProducts      int64   `json:"totalProducts"`
	ActiveProducts     int64   `json:"activeProducts"`
	LowStockProducts   int64   `json:"lowStockProducts"`
	OutOfStockProducts int64   `json:"outOfStockProducts"`
	TotalStockValue    float64 `json:"totalStockValue"`
}

func (r *ProductRepository) Insert(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("product with SKU %s already exists", p.SKU)
		}
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Find(ctx context.Context, q *query.Query) ([]*models.Product, int64, error) {
	total, err := r.col.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	cursor, err := r.col.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	set["updatedAt"] = time.Now()
	var p models.Product
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("product SKU already in use")
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Product not found")
	}
	return nil
}

// DecrementStock atomically subtracts qty from stock, failing when the
// remaining stock would go negative. The filter condition and the decrement
// are a single conditional update so concurrent checkouts cannot oversell.
// Returns the document as it was before the decrement.
func (r *ProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	var before models.Product
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the product is gone or stock is short; name the product
		// when it exists.
		p, lookupErr := r.FindByID(ctx, id)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, apperrors.InsufficientStock("Insufficient stock for product: %s", p.Name)
	}
	if err != nil {
		return nil, err
	}
	return &before, nil
}

// IncrementStock adds qty back to stock (restocks, rollback of a failed
// checkout). Returns the document before the increment.
func (r *ProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	var before models.Product
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": qty},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	return &before, nil
}

func (r *ProductRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	return err
}

func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	cursor, err := r.col.Find(ctx,
		bson.M{
			"stock":  bson.M{"$lte": threshold},
			"status": bson.M{"$ne": models.ProductStatusDraft},
		},
		options.Find().SetSort(bson.D{{Key: "stock", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) OutOfStock(ctx context.Context) ([]*models.Product, error) {
	cursor, err := r.col.Find(ctx, bson.M{
		"stock":  0,
		"status": models.ProductStatusOutOfStock,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Summary(ctx context.Context) (*InventorySummary, error) {
	notDraft := bson.M{"status": bson.M{"$ne": models.ProductStatusDraft}}

	summary := &InventorySummary{}
	var err error
	if summary.TotalProducts, err = r.col.CountDocuments(ctx, notDraft); err != nil {
		return nil, err
	}
	if summary.ActiveProducts, err = r.col.CountDocuments(ctx, bson.M{"status": models.ProductStatusActive}); err != nil {
		return nil, err
	}
	if summary.LowStockProducts, err = r.col.CountDocuments(ctx, bson.M{
		"stock":  bson.M{"$lte": models.LowStockThreshold},
		"status": bson.M{"$ne": models.ProductStatusDraft},
	}); err != nil {
		return nil, err
	}
	if summary.OutOfStockProducts, err = r.col.CountDocuments(ctx, bson.M{"status": models.ProductStatusOutOfStock}); err != nil {
		return nil, err
	}

	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: notDraft}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalValue": bson.M{"$sum": bson.M{"$multiply": bson.A{"$stock", "$price"}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var agg []struct {
		TotalValue float64 `bson:"totalValue"`
	}
	if err := cursor.All(ctx, &agg); err != nil {
		return nil, err
	}
	if len(agg) > 0 {
		summary.TotalStockValue = agg[0].TotalValue
	}
	return summary, nil
}
