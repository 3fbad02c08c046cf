// Package service holds the business workflows: checkout orchestration,
// inventory adjustment, coupon validation, store configuration and account
// management. Persistence is reached through the narrow store interfaces
// below so workflows stay testable without a live database.
package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/opticstore/pkg/models"
	"github.com/example/opticstore/pkg/query"
	"github.com/example/opticstore/pkg/repository"
)

type ProductStore interface {
	Insert(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Find(ctx context.Context, q *query.Query) ([]*models.Product, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	LowStock(ctx context.Context, threshold int) ([]*models.Product, error)
	OutOfStock(ctx context.Context) ([]*models.Product, error)
	Summary(ctx context.Context) (*repository.InventorySummary, error)
}

type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Find(ctx context.Context, q *query.Query) ([]*models.Order, int64, error)
	FindByCustomer(ctx context.Context, customer primitive.ObjectID) ([]*models.Order, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	MarkPaidByIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
}

type CouponStore interface {
	Insert(ctx context.Context, c *models.Coupon) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	Find(ctx context.Context, q *query.Query) ([]*models.Coupon, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Coupon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	IncrementOrderStats(ctx context.Context, id primitive.ObjectID, spent float64) error
}

type StoreConfigStore interface {
	Get(ctx context.Context) (*models.StoreConfig, error)
	Update(ctx context.Context, dotPaths bson.M) (*models.StoreConfig, error)
}

// ConfigCache is the read-through cache in front of the store config
// singleton. Cache failures are tolerated; the document store remains the
// source of truth.
type ConfigCache interface {
	GetStoreConfig(ctx context.Context) (*models.StoreConfig, error)
	CacheStoreConfig(ctx context.Context, cfg *models.StoreConfig) error
	InvalidateStoreConfig(ctx context.Context) error
}

// Notifier enqueues best-effort outbound messages. Enqueue failures must
// never fail the operation that produced them.
type Notifier interface {
	EnqueueEmail(ctx context.Context, recipient, subject, body string) error
	EnqueueSMS(ctx context.Context, recipient, body string) error
}
