package mongosafe

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestFromMongo(t *testing.T) {
	assert.Equal(t, &UpdateResult{}, fromMongo(nil))
	got := fromMongo(&mongo.UpdateResult{MatchedCount: 2, ModifiedCount: 1, UpsertedCount: 1, UpsertedID: "x"})
	assert.Equal(t, &UpdateResult{MatchedCount: 2, ModifiedCount: 1, UpsertedCount: 1, UpsertedID: "x"}, got)
}

func TestReturnModeString(t *testing.T) {
	assert.Equal(t, "before", ReturnBefore.String())
	assert.Equal(t, "after", ReturnAfter.String())
}

// mongoCollection connects to MUTATIONGUARD_MONGO_URI and returns an empty,
// test-scoped collection.
func mongoCollection(t *testing.T) *MongoCollection {
	t.Helper()
	uri := os.Getenv("MUTATIONGUARD_MONGO_URI")
	if uri == "" {
		t.Skip("skipping integration test (set MUTATIONGUARD_MONGO_URI to run)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	coll := client.Database("mutationguard_test").Collection(t.Name())
	require.NoError(t, coll.Drop(ctx))
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })
	return NewMongoCollection(coll)
}

func TestIntegrationMongoCollection(t *testing.T) {
	coll := mongoCollection(t)
	ctx := context.Background()

	res, err := SafeUpdateOne(ctx, coll, bson.M{"_id": "S-1"}, BuildSet(bson.M{"status": "ENROLLED"}), WithUpsert(true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.UpsertedCount)

	res, err = SafeUpdateMany(ctx, coll, bson.M{"status": "ENROLLED"}, BuildInc(bson.M{"credits": 3}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(1), res.ModifiedCount)

	doc, err := SafeFindOneAndUpdate(ctx, coll, bson.M{"_id": "S-1"}, BuildPush("history", "2024-I"), WithReturnDocument(ReturnAfter))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, bson.A{"2024-I"}, doc["history"])

	doc, err = SafeFindOneAndUpdate(ctx, coll, bson.M{"_id": "missing"}, BuildSet(bson.M{"x": 1}))
	require.NoError(t, err)
	assert.Nil(t, doc)

	_, err = SafeUpdateOne(ctx, coll, bson.M{"_id": "S-1"}, bson.M{"status": "DROPPED"})
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}
