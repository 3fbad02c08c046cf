package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/opticstore/pkg/config"
)

// Collection names.
const (
	colProducts    = "products"
	colOrders      = "orders"
	colCoupons     = "coupons"
	colUsers       = "users"
	colStoreConfig = "storeConfig"
)

type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

func NewMongo(cfg *config.MongoDBConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &Mongo{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique constraints the domain relies on:
// product SKU, order number, coupon code, user email and username.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		colProducts: {
			{Keys: bson.D{{Key: "sku", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "stock", Value: 1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "paymentIntentId", Value: 1}}},
		},
		colCoupons: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
	}

	for col, models := range indexes {
		if _, err := m.database.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mongo) Products() *ProductRepository {
	return &ProductRepository{col: m.database.Collection(colProducts)}
}

func (m *Mongo) Orders() *OrderRepository {
	return &OrderRepository{col: m.database.Collection(colOrders)}
}

func (m *Mongo) Coupons() *CouponRepository {
	return &CouponRepository{col: m.database.Collection(colCoupons)}
}

func (m *Mongo) Users() *UserRepository {
	return &UserRepository{col: m.database.Collection(colUsers)}
}

func (m *Mongo) Store() *StoreRepository {
	return &StoreRepository{col: m.database.Collection(colStoreConfig)}
}
