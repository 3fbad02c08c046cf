package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/opticstore/pkg/models"
)

type StoreRepository struct {
	col *mongo.Collection
}

// Get returns the singleton config, seeding the default document on first
// read. The upsert keys on the fixed _id, so a concurrent first read cannot
// create a second document.
func (r *StoreRepository) Get(ctx context.Context) (*models.StoreConfig, error) {
	var cfg models.StoreConfig
	err := r.col.FindOne(ctx, bson.M{"_id": models.StoreConfigID}).Decode(&cfg)
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	seed := models.DefaultStoreConfig()
	now := time.Now()
	seed.CreatedAt = now
	seed.UpdatedAt = now
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": models.StoreConfigID},
		bson.M{"$setOnInsert": seed},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update applies a partial update expressed as dot-path leaves ($set), with
// upsert so the first admin write also creates the singleton.
func (r *StoreRepository) Update(ctx context.Context, dotPaths bson.M) (*models.StoreConfig, error) {
	dotPaths["updatedAt"] = time.Now()
	var cfg models.StoreConfig
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": models.StoreConfigID},
		bson.M{
			"$set":         dotPaths,
			"$setOnInsert": bson.M{"createdAt": time.Now()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
