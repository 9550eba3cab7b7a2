package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Users      = "users"
	Products   = "products"
	Categories = "categories"
	Discounts  = "discounts"
	Carts      = "carts"
	Orders     = "orders"
	Wishlists  = "wishlists"
)

func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the unique indexes backing the uniqueness
// invariants (one cart per user, unique usernames/emails/names/codes).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		Categories: {
			{Keys: bson.D{{Key: "nameKey", Value: 1}}, Options: unique},
		},
		Discounts: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
		},
		Carts: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
		Wishlists: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: unique},
		},
		Products: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		Orders: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
	}
	for coll, models := range specs {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		log.Printf("indexes ready on %s: %v", coll, names)
	}
	return nil
}
