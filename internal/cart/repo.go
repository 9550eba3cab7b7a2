package cart

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/db"
	"storefront/internal/models"
	"storefront/internal/store"
)

type Repo struct {
	coll *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{coll: database.Collection(db.Carts)}
}

// ForUser returns the user's cart, or an empty unsaved cart when none exists yet.
func (r *Repo) ForUser(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	var c models.Cart
	err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c, nil
}

// SaveItems replaces the line items, creating the cart on first write.
func (r *Repo) SaveItems(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) (models.Cart, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	var c models.Cart
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{"$set": bson.M{"items": items, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	return c, store.Translate(err)
}

func (r *Repo) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.SaveItems(ctx, userID, nil)
	return err
}

func (r *Repo) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"user": userID})
	return err
}
