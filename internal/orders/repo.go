package orders

import (
	"context"
	"errors"
	"fmt"
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
	return &Repo{coll: database.Collection(db.Orders)}
}

func (r *Repo) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, o)
	return store.Translate(err)
}

func (r *Repo) ByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var o models.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	return o, store.Translate(err)
}

// List pages orders newest first. A zero userID or empty status matches all.
func (r *Repo) List(ctx context.Context, userID primitive.ObjectID, status string, skip, limit int64) ([]models.Order, int64, error) {
	filter := bson.M{}
	if !userID.IsZero() {
		filter["user"] = userID
	}
	if status != "" {
		filter["status"] = status
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetStatus moves an order from one status to another. The update only
// applies while the order is still in from, so two concurrent transitions
// cannot both succeed.
func (r *Repo) SetStatus(ctx context.Context, id primitive.ObjectID, from, to string, payment *models.Payment) (models.Order, error) {
	set := bson.M{"status": to, "updatedAt": time.Now().UTC()}
	if payment != nil {
		set["payment"] = *payment
	}
	var o models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return o, fmt.Errorf("order is no longer %s: %w", from, store.ErrConflict)
	}
	return o, store.Translate(err)
}
