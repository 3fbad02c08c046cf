package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
)

// ProductFilterFields is the list-endpoint filter allow-list.
var ProductFilterFields = map[string]bool{
	"name":           true,
	"sku":            true,
	"price":          true,
	"salePrice":      true,
	"stock":          true,
	"category":       true,
	"brand":          true,
	"status":         true,
	"ratingsAverage": true,
}

type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	if err := s.validate(p); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = models.ProductStatusDraft
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, q *query.Query) ([]*models.Product, int64, error) {
	return s.products.Find(ctx, q)
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	if sku, ok := set["sku"].(string); ok {
		set["sku"] = strings.ToUpper(strings.TrimSpace(sku))
	}
	if price, hasPrice := set["price"].(float64); hasPrice {
		if sale, hasSale := set["salePrice"].(float64); hasSale && sale > 0 && sale >= price {
			return nil, apperrors.Validation("sale price must be less than the regular price")
		}
	}
	return s.products.Update(ctx, id, set)
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.products.Delete(ctx, id)
}

func (s *ProductService) validate(p *models.Product) error {
	if len(p.Name) < 2 {
		return apperrors.Validation("product name is required")
	}
	if len(p.SKU) < 3 || len(p.SKU) > 20 {
		return apperrors.Validation("SKU must be 3-20 characters")
	}
	if p.Price < 0 {
		return apperrors.Validation("price cannot be negative")
	}
	if p.SalePrice > 0 && p.SalePrice >= p.Price {
		return apperrors.Validation("sale price must be less than the regular price")
	}
	if p.Stock < 0 {
		return apperrors.Validation("stock cannot be negative")
	}
	if !models.ValidCategory(p.Category) {
		return apperrors.Validation("%s is not a valid category", p.Category)
	}
	return nil
}
