package mongosafe

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReturnMode selects which version of the document find-and-update returns.
type ReturnMode int

const (
	ReturnBefore ReturnMode = iota
	ReturnAfter
)

func (m ReturnMode) String() string {
	if m == ReturnAfter {
		return "after"
	}
	return "before"
}

// UpdateResult is the outcome of an update primitive.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	UpsertedID    any
}

// Collection is the subset of a document-database collection the wrappers
// delegate to. Implementations must honor ctx cancellation.
type Collection interface {
	UpdateOne(ctx context.Context, filter, update any, upsert bool) (*UpdateResult, error)
	UpdateMany(ctx context.Context, filter, update any, upsert bool) (*UpdateResult, error)
	// FindOneAndUpdate returns nil and no error when nothing matched.
	FindOneAndUpdate(ctx context.Context, filter, update any, upsert bool, mode ReturnMode) (bson.M, error)
}

// MongoCollection adapts a *mongo.Collection to Collection.
type MongoCollection struct {
	coll *mongo.Collection
}

// NewMongoCollection wraps coll. The returned value only translates
// arguments; it performs no validation of its own.
func NewMongoCollection(coll *mongo.Collection) *MongoCollection {
	return &MongoCollection{coll: coll}
}

func (c *MongoCollection) UpdateOne(ctx context.Context, filter, update any, upsert bool) (*UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return fromMongo(res), nil
}

func (c *MongoCollection) UpdateMany(ctx context.Context, filter, update any, upsert bool) (*UpdateResult, error) {
	res, err := c.coll.UpdateMany(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, err
	}
	return fromMongo(res), nil
}

func (c *MongoCollection) FindOneAndUpdate(ctx context.Context, filter, update any, upsert bool, mode ReturnMode) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetUpsert(upsert)
	if mode == ReturnAfter {
		opts.SetReturnDocument(options.After)
	} else {
		opts.SetReturnDocument(options.Before)
	}

	var doc bson.M
	err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func fromMongo(res *mongo.UpdateResult) *UpdateResult {
	if res == nil {
		return &UpdateResult{}
	}
	return &UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}
