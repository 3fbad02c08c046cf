package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/repository"
)

const (
	OpIncrease = "increase"
	OpDecrease = "decrease"
)

type InventoryService struct {
	products ProductStore
	logger   *zap.Logger
}

func NewInventoryService(products ProductStore, logger *zap.Logger) *InventoryService {
	return &InventoryService{products: products, logger: logger.Named("inventory")}
}

// AdjustStock applies a single stock movement and recomputes the derived
// status label. Decreases are atomic conditional updates; an insufficient
// stock failure names the product.
func (s *InventoryService) AdjustStock(ctx context.Context, productID primitive.ObjectID, qty int, operation string) (*models.Product, error) {
	if qty <= 0 {
		return nil, apperrors.Validation("Valid quantity is required")
	}

	var before *models.Product
	var err error
	var newStock int

	switch operation {
	case OpDecrease:
		before, err = s.products.DecrementStock(ctx, productID, qty)
		if err != nil {
			return nil, err
		}
		newStock = before.Stock - qty
	case OpIncrease:
		before, err = s.products.IncrementStock(ctx, productID, qty)
		if err != nil {
			return nil, err
		}
		newStock = before.Stock + qty
	default:
		return nil, apperrors.Validation(`Operation must be "increase" or "decrease"`)
	}

	updated := *before
	updated.Stock = newStock
	updated.Status = models.StockStatus(before.Status, newStock)
	if updated.Status != before.Status {
		if err := s.products.SetStatus(ctx, productID, updated.Status); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}

// AdjustStockBulk applies the movement to each item in turn. A mid-list
// failure leaves earlier adjustments in place; the caller owns any
// compensation (checkout deletes its just-created order).
func (s *InventoryService) AdjustStockBulk(ctx context.Context, items []models.OrderItem, operation string) error {
	for _, item := range items {
		if _, err := s.AdjustStock(ctx, item.ProductID, item.Quantity, operation); err != nil {
			return err
		}
	}
	return nil
}

// Restock adds stock back outside of checkout (deliveries, returns).
func (s *InventoryService) Restock(ctx context.Context, productID primitive.ObjectID, qty int, reason string) (*models.Product, error) {
	p, err := s.AdjustStock(ctx, productID, qty, OpIncrease)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product restocked",
		zap.String("product_id", productID.Hex()),
		zap.Int("quantity", qty),
		zap.String("reason", reason))
	return p, nil
}

func (s *InventoryService) LowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	if threshold <= 0 {
		threshold = models.LowStockThreshold
	}
	return s.products.LowStock(ctx, threshold)
}

func (s *InventoryService) OutOfStock(ctx context.Context) ([]*models.Product, error) {
	return s.products.OutOfStock(ctx)
}

func (s *InventoryService) Summary(ctx context.Context) (*repository.InventorySummary, error) {
	return s.products.Summary(ctx)
}
