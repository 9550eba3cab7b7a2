package categories

import (
	"context"
	"strings"
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
	return &Repo{coll: database.Collection(db.Categories)}
}

// NameKey is the case-insensitive uniqueness key for a category name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Repo) List(ctx context.Context) ([]models.Category, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nameKey", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Category
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ByID(ctx context.Context, id primitive.ObjectID) (models.Category, error) {
	var c models.Category
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, store.Translate(err)
}

func (r *Repo) Create(ctx context.Context, c *models.Category) error {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameKey = NameKey(c.Name)
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, c)
	return store.Translate(err)
}

func (r *Repo) Update(ctx context.Context, id primitive.ObjectID, name, description *string) (models.Category, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if name != nil {
		set["name"] = strings.TrimSpace(*name)
		set["nameKey"] = NameKey(*name)
	}
	if description != nil {
		set["description"] = *description
	}
	var c models.Category
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	return c, store.Translate(err)
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
