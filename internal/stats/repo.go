package stats

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/db"
	"storefront/internal/models"
)

const topN = 5

type TopProduct struct {
	ProductID primitive.ObjectID `bson:"_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Revenue   float64            `bson:"revenue" json:"revenue"`
}

type Sales struct {
	TotalSales float64 `bson:"totalSales"`
	OrderCount int64   `bson:"orderCount"`
}

// Repo runs the aggregations behind the admin dashboard.
type Repo struct {
	orders *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{orders: database.Collection(db.Orders)}
}

var notCancelled = bson.D{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": models.OrderCancelled}}}}

func (r *Repo) Sales(ctx context.Context) (Sales, error) {
	pipeline := mongo.Pipeline{
		notCancelled,
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalSales": bson.M{"$sum": "$total"},
			"orderCount": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return Sales{}, err
	}
	var out []Sales
	if err := cur.All(ctx, &out); err != nil {
		return Sales{}, err
	}
	if len(out) == 0 {
		return Sales{}, nil
	}
	return out[0], nil
}

// TopProducts ranks products by units sold. The name is taken from the most
// recent order snapshot so deleted products still show up.
func (r *Repo) TopProducts(ctx context.Context) ([]TopProduct, error) {
	pipeline := mongo.Pipeline{
		notCancelled,
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$items.product",
			"name":     bson.M{"$first": "$items.name"},
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.price", "$items.quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "revenue", Value: -1}}}},
		{{Key: "$limit", Value: topN}},
	}
	cur, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var out []TopProduct
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
