package products

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/db"
	"storefront/internal/models"
	"storefront/internal/store"
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

type Filter struct {
	Search   string
	Category primitive.ObjectID
	MinPrice *float64
	MaxPrice *float64
	InStock  bool
	Sort     string
}

func (f Filter) bson() bson.M {
	filter := bson.M{}
	if f.Search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	if !f.Category.IsZero() {
		filter["category"] = f.Category
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	return filter
}

func sortFor(s string) bson.D {
	switch s {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case SortName:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// populateStages joins the category document into categoryRef.
func populateStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         db.Categories,
			"localField":   "category",
			"foreignField": "_id",
			"as":           "categoryRef",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$categoryRef", "preserveNullAndEmptyArrays": true}}},
	}
}

type Repo struct {
	coll *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{coll: database.Collection(db.Products)}
}

func (r *Repo) List(ctx context.Context, f Filter, skip, limit int64) ([]models.Product, int64, error) {
	match := f.bson()
	total, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: sortFor(f.Sort)}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, populateStages()...)

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) ByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	pipeline := append(mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}, populateStages()...)
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.Product{}, err
	}
	var out []models.Product
	if err := cur.All(ctx, &out); err != nil {
		return models.Product{}, err
	}
	if len(out) == 0 {
		return models.Product{}, store.ErrNotFound
	}
	return out[0], nil
}

// ByIDs returns the products that still exist, keyed by id.
func (r *Repo) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var list []models.Product
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repo) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	p.CategoryRef = nil
	_, err := r.coll.InsertOne(ctx, p)
	return store.Translate(err)
}

type Update struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Category    *primitive.ObjectID
	Image       *string
}

func (r *Repo) Update(ctx context.Context, id primitive.ObjectID, u Update) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return store.Translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
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

func (r *Repo) CountByCategory(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"category": id})
}

// DecrementStock takes qty units only if that many are available, so stock
// never goes negative.
func (r *Repo) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id.Hex(), store.ErrInsufficientStock)
	}
	return nil
}

func (r *Repo) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	return err
}
