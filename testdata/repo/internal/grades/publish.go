package grades

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func Publish(ctx context.Context, coll *mongo.Collection, term string) error {
	_, err := coll.UpdateMany(ctx, bson.M{"term": term}, bson.M{"published": true})
	return err
}
