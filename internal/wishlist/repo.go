package wishlist

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
	return &Repo{coll: database.Collection(db.Wishlists)}
}

func (r *Repo) ForUser(ctx context.Context, userID primitive.ObjectID) (models.Wishlist, error) {
	var w models.Wishlist
	err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Wishlist{UserID: userID, ProductIDs: []primitive.ObjectID{}}, nil
	}
	return w, err
}

func (r *Repo) modify(ctx context.Context, userID primitive.ObjectID, op string, productID primitive.ObjectID, upsert bool) (models.Wishlist, error) {
	var w models.Wishlist
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"user": userID},
		bson.M{op: bson.M{"products": productID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetUpsert(upsert).SetReturnDocument(options.After),
	).Decode(&w)
	return w, store.Translate(err)
}

// Add is idempotent; a product already on the list is not added twice.
func (r *Repo) Add(ctx context.Context, userID, productID primitive.ObjectID) (models.Wishlist, error) {
	return r.modify(ctx, userID, "$addToSet", productID, true)
}

func (r *Repo) Remove(ctx context.Context, userID, productID primitive.ObjectID) (models.Wishlist, error) {
	w, err := r.modify(ctx, userID, "$pull", productID, false)
	if errors.Is(err, store.ErrNotFound) {
		return models.Wishlist{UserID: userID, ProductIDs: []primitive.ObjectID{}}, nil
	}
	return w, err
}

func (r *Repo) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"user": userID})
	return err
}
