package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
)

func TestProductCreateNormalizesAndDefaults(t *testing.T) {
	svc := NewProductService(newMemProducts())

	created, err := svc.Create(context.Background(), &models.Product{
		Name:     "Round Frames",
		SKU:      " rnd-001 ",
		Price:    120,
		Stock:    10,
		Category: "Eyeglasses",
	})
	require.NoError(t, err)
	assert.Equal(t, "RND-001", created.SKU)
	assert.Equal(t, models.ProductStatusDraft, created.Status)
	assert.Equal(t, "USD", created.Currency)
	assert.False(t, created.ID.IsZero())
}

func TestProductCreateValidation(t *testing.T) {
	svc := NewProductService(newMemProducts())
	ctx := context.Background()

	valid := func() *models.Product {
		return &models.Product{Name: "Frames", SKU: "FRM-001", Price: 100, Stock: 5, Category: "Eyeglasses"}
	}

	cases := []struct {
		name   string
		mutate func(*models.Product)
	}{
		{"short name", func(p *models.Product) { p.Name = "F" }},
		{"short sku", func(p *models.Product) { p.SKU = "AB" }},
		{"negative price", func(p *models.Product) { p.Price = -1 }},
		{"sale above price", func(p *models.Product) { p.SalePrice = 150 }},
		{"negative stock", func(p *models.Product) { p.Stock = -1 }},
		{"unknown category", func(p *models.Product) { p.Category = "Watches" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(p)
			_, err := svc.Create(ctx, p)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		})
	}
}

func TestProductCreateRejectsDuplicateSKU(t *testing.T) {
	svc := NewProductService(newMemProducts())
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.Product{Name: "Frames", SKU: "FRM-001", Price: 100, Category: "Eyeglasses"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &models.Product{Name: "Other", SKU: "frm-001", Price: 50, Category: "Eyeglasses"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.Contains(t, err.Error(), "FRM-001")
}

func TestProductUpdateGuardsSalePrice(t *testing.T) {
	store := newMemProducts(&models.Product{Name: "Frames", SKU: "FRM-001", Price: 100, Category: "Eyeglasses"})
	svc := NewProductService(store)

	products, _, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = svc.Update(context.Background(), products[0].ID, map[string]interface{}{
		"price":     100.0,
		"salePrice": 120.0,
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
