package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/apperrors"
	"github.com/example/opticstore/pkg/models"
)

// StoreService serves the singleton store configuration with a Redis
// read-through cache in front of the document store.
type StoreService struct {
	repo   StoreConfigStore
	cache  ConfigCache
	logger *zap.Logger
}

func NewStoreService(repo StoreConfigStore, cache ConfigCache, logger *zap.Logger) *StoreService {
	return &StoreService{repo: repo, cache: cache, logger: logger.Named("store-config")}
}

func (s *StoreService) Get(ctx context.Context) (*models.StoreConfig, error) {
	if s.cache != nil {
		if cfg, err := s.cache.GetStoreConfig(ctx); err == nil {
			return cfg, nil
		}
	}

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheStoreConfig(ctx, cfg); err != nil {
			s.logger.Warn("failed to cache store config", zap.Error(err))
		}
	}
	return cfg, nil
}

// PublicView strips admin-only sections from the config for unauthenticated
// storefront reads.
type PublicView struct {
	StoreProfile   models.StoreProfile    `json:"storeProfile"`
	Shipping       models.ShippingConfig  `json:"shipping"`
	Tax            models.TaxConfig       `json:"tax"`
	CMS            models.CMSContent      `json:"cms"`
	SEO            models.SEOConfig       `json:"seo"`
	PaymentMethods []models.PaymentMethod `json:"paymentMethods,omitempty"`
}

func (s *StoreService) GetPublic(ctx context.Context) (*PublicView, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	view := &PublicView{
		StoreProfile: cfg.StoreProfile,
		Shipping:     cfg.Shipping,
		Tax:          cfg.Tax,
		CMS:          cfg.CMS,
		SEO:          cfg.SEO,
	}
	for _, m := range cfg.PaymentMethods {
		if m.Status == "active" {
			view.PaymentMethods = append(view.PaymentMethods, m)
		}
	}
	return view, nil
}

// Update applies a partial nested update. Leaf fields merge via dot-path
// $set; arrays and explicitly supplied subtrees replace wholesale. The
// write upserts on the fixed singleton id, then invalidates the cache.
func (s *StoreService) Update(ctx context.Context, partial map[string]interface{}) (*models.StoreConfig, error) {
	if len(partial) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}
	delete(partial, "_id")

	dotPaths := bson.M{}
	flatten(partial, "", dotPaths)

	if methods, ok := partial["paymentMethods"]; ok {
		if err := validateDefaultMethods(methods); err != nil {
			return nil, err
		}
	}

	cfg, err := s.repo.Update(ctx, dotPaths)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateStoreConfig(ctx); err != nil {
			s.logger.Warn("failed to invalidate store config cache", zap.Error(err))
		}
	}
	return cfg, nil
}

// flatten converts nested maps to dot-notation leaves so a partial update
// only touches the fields it names. Arrays are leaves: they replace whole.
func flatten(in map[string]interface{}, prefix string, out bson.M) {
	for key, value := range in {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			flatten(nested, path, out)
			continue
		}
		out[path] = value
	}
}

func validateDefaultMethods(methods interface{}) error {
	list, ok := methods.([]interface{})
	if !ok {
		return apperrors.Validation("paymentMethods must be a list")
	}
	defaults := 0
	for _, m := range list {
		entry, ok := m.(map[string]interface{})
		if !ok {
			continue
		}
		if isDefault, _ := entry["isDefault"].(bool); isDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return apperrors.Validation("cannot have more than one default payment method")
	}
	return nil
}
