package discounts

import (
	"context"
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
	return &Repo{coll: database.Collection(db.Discounts)}
}

// Update holds the fields of a partial discount update; nil means unchanged.
type Update struct {
	Code           *string
	Type           *string
	Value          *float64
	MinOrderAmount *float64
	UsageLimit     *int
	Active         *bool
	ExpiresAt      *time.Time
	ClearExpiry    bool
}

func (u Update) bson() bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Code != nil {
		set["code"] = NormalizeCode(*u.Code)
	}
	if u.Type != nil {
		set["type"] = *u.Type
	}
	if u.Value != nil {
		set["value"] = *u.Value
	}
	if u.MinOrderAmount != nil {
		set["minOrderAmount"] = *u.MinOrderAmount
	}
	if u.UsageLimit != nil {
		set["usageLimit"] = *u.UsageLimit
	}
	if u.Active != nil {
		set["active"] = *u.Active
	}
	if u.ExpiresAt != nil {
		set["expiresAt"] = u.ExpiresAt.UTC()
	}
	doc := bson.M{"$set": set}
	if u.ClearExpiry && u.ExpiresAt == nil {
		doc["$unset"] = bson.M{"expiresAt": ""}
	}
	return doc
}

func (r *Repo) List(ctx context.Context, skip, limit int64) ([]models.Discount, int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	var out []models.Discount
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) ByID(ctx context.Context, id primitive.ObjectID) (models.Discount, error) {
	var d models.Discount
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	return d, store.Translate(err)
}

func (r *Repo) ByCode(ctx context.Context, code string) (models.Discount, error) {
	var d models.Discount
	err := r.coll.FindOne(ctx, bson.M{"code": NormalizeCode(code)}).Decode(&d)
	return d, store.Translate(err)
}

func (r *Repo) Create(ctx context.Context, d *models.Discount) error {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Code = NormalizeCode(d.Code)
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, d)
	return store.Translate(err)
}

func (r *Repo) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Discount, error) {
	var d models.Discount
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, u.bson(),
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	return d, store.Translate(err)
}

func (r *Repo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementUsage bumps usedCount only while the code is still under its limit,
// so concurrent checkouts cannot overspend it.
func (r *Repo) IncrementUsage(ctx context.Context, code string) error {
	filter := bson.M{
		"code": NormalizeCode(code),
		"$or": bson.A{
			bson.M{"usageLimit": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$usageLimit"}}},
		},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", code, ErrExhausted)
	}
	return nil
}

func (r *Repo) DecrementUsage(ctx context.Context, code string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"code": NormalizeCode(code), "usedCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"usedCount": -1}})
	return err
}
