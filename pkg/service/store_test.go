package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
)

func TestStoreGetPopulatesCache(t *testing.T) {
	repo := newMemStoreConfig(nil)
	cache := &memCache{}
	svc := NewStoreService(repo, cache, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.misses)

	second, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.StoreProfile.Name, second.StoreProfile.Name)
}

func TestStoreUpdateFlattensToDotPaths(t *testing.T) {
	repo := newMemStoreConfig(nil)
	cache := &memCache{}
	svc := NewStoreService(repo, cache, zap.NewNop())

	_, err := svc.Update(context.Background(), map[string]interface{}{
		"shipping": map[string]interface{}{
			"freeThreshold": 75.0,
		},
		"tax": map[string]interface{}{
			"rate":   7.5,
			"active": true,
		},
		"_id": "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"shipping.freeThreshold": 75.0,
		"tax.rate":               7.5,
		"tax.active":             true,
	}, repo.lastSet)
	assert.Equal(t, 1, cache.invalidated)
}

func TestStoreUpdateArraysReplaceWhole(t *testing.T) {
	repo := newMemStoreConfig(nil)
	svc := NewStoreService(repo, nil, zap.NewNop())

	methods := []interface{}{
		map[string]interface{}{"name": "COD", "status": "active", "isDefault": true},
		map[string]interface{}{"name": "Card", "status": "active"},
	}
	_, err := svc.Update(context.Background(), map[string]interface{}{
		"paymentMethods": methods,
	})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"paymentMethods": methods}, repo.lastSet)
}

func TestStoreUpdateRejectsTwoDefaultMethods(t *testing.T) {
	svc := NewStoreService(newMemStoreConfig(nil), nil, zap.NewNop())

	_, err := svc.Update(context.Background(), map[string]interface{}{
		"paymentMethods": []interface{}{
			map[string]interface{}{"name": "COD", "isDefault": true},
			map[string]interface{}{"name": "Card", "isDefault": true},
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.Update(context.Background(), map[string]interface{}{})
	require.Error(t, err)
}

func TestStorePublicViewFiltersInactiveMethods(t *testing.T) {
	cfg := models.DefaultStoreConfig()
	cfg.PaymentMethods = []models.PaymentMethod{
		{Name: "COD", Status: "active"},
		{Name: "Legacy Wallet", Status: "inactive"},
	}
	svc := NewStoreService(newMemStoreConfig(cfg), nil, zap.NewNop())

	view, err := svc.GetPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, view.PaymentMethods, 1)
	assert.Equal(t, "COD", view.PaymentMethods[0].Name)
	assert.Equal(t, cfg.StoreProfile.Currency, view.StoreProfile.Currency)
}
