package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func TestCollection_UniqueInsert(t *testing.T) {
	c := NewBackend("things", map[string]string{"key": "key_1"}).Handle("default")
	ctx := context.Background()

	_, err := c.InsertOne(ctx, bson.D{{Key: "key", Value: "a"}})
	require.NoError(t, err)
	_, err = c.InsertOne(ctx, bson.D{{Key: "key", Value: "a"}})

	assert.True(t, mongo.IsDuplicateKeyError(err))
	assert.Equal(t, 1, c.Count())
}

func TestCollection_Upsert(t *testing.T) {
	c := NewBackend("things", nil).Handle("default")
	ctx := context.Background()
	filter := bson.D{{Key: "key", Value: "a"}}
	set := bson.D{{Key: "$set", Value: bson.D{{Key: "n", Value: "1"}}}}

	res, err := c.UpdateOne(ctx, filter, set)
	require.NoError(t, err)
	assert.Zero(t, res.MatchedCount)
	assert.Zero(t, c.Count())

	res, err = c.UpdateOne(ctx, filter, set, options.UpdateOne().SetUpsert(true))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.UpsertedCount)

	var got struct {
		Key string `bson:"key"`
		N   string `bson:"n"`
	}
	require.NoError(t, c.FindOne(ctx, filter).Decode(&got))
	assert.Equal(t, "a", got.Key)
	assert.Equal(t, "1", got.N)
}

func TestCollection_FindMissing(t *testing.T) {
	c := NewBackend("things", nil).Handle("default")

	err := c.FindOne(context.Background(), bson.D{{Key: "key", Value: "x"}}).Err()

	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestCollection_Delete(t *testing.T) {
	b := NewBackend("things", nil)
	c := b.Handle("default")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.InsertOne(ctx, bson.D{{Key: "group", Value: "g"}})
		require.NoError(t, err)
	}

	res, err := c.DeleteOne(ctx, bson.D{{Key: "group", Value: "g"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.DeletedCount)

	res, err = c.DeleteMany(ctx, bson.D{{Key: "group", Value: "g"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.DeletedCount)
	assert.Zero(t, b.Count())
	assert.Equal(t, []string{"insert", "insert", "insert", "delete", "delete"}, c.Ops())
}
