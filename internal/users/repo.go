package users

import (
	"context"
	"regexp"
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
	return &Repo{coll: database.Collection(db.Users)}
}

func (r *Repo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, u)
	return store.Translate(err)
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	return u, store.Translate(err)
}

func (r *Repo) ByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// ByIdentifier looks a user up by email or username.
func (r *Repo) ByIdentifier(ctx context.Context, ident string) (models.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": ident},
		bson.M{"username": ident},
	}})
}

func (r *Repo) update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.User, error) {
	set["updatedAt"] = time.Now().UTC()
	var u models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	return u, store.Translate(err)
}

func (r *Repo) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (models.User, error) {
	set := bson.M{}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	return r.update(ctx, id, set)
}

func (r *Repo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := r.update(ctx, id, bson.M{"password": hash})
	return err
}

func (r *Repo) SetProfileImage(ctx context.Context, id primitive.ObjectID, image string) (models.User, error) {
	return r.update(ctx, id, bson.M{"profileImage": image})
}

func (r *Repo) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at}})
	return store.Translate(err)
}

func (r *Repo) SetRole(ctx context.Context, id primitive.ObjectID, role string) (models.User, error) {
	return r.update(ctx, id, bson.M{"role": role})
}

func (r *Repo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (models.User, error) {
	return r.update(ctx, id, bson.M{"isActive": active})
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

func (r *Repo) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.User, int64, error) {
	filter := f.bson()
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
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) CountActive(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"isActive": true})
}

type ProfileUpdate struct {
	Username *string
	Email    *string
}

type ListFilter struct {
	Search string
	Role   string
	Active *bool
}

func (f ListFilter) bson() bson.M {
	filter := bson.M{}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"username": rx},
			bson.M{"email": rx},
		}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Active != nil {
		filter["isActive"] = *f.Active
	}
	return filter
}
