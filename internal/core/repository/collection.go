package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection is the subset of *mongo.Collection the repositories use:
// unique-key enforced insert, point lookup, atomic upsert-by-filter and
// delete-by-filter. Write durability is a property of the handle.
type Collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error)
}

var _ Collection = (*mongo.Collection)(nil)

// Collections groups the handles an AccountStore is built from.
type Collections struct {
	// Users uses the client's default write concern.
	Users Collection
	// DurableUsers points at the same collection as Users but only
	// acknowledges writes replicated to a majority of the replica set.
	DurableUsers Collection
	Sessions     Collection
}

// Collection and index names shared with schema provisioning.
const (
	UsersCollection    = "users"
	SessionsCollection = "sessions"

	IndexUserEmail     = "users_email_unique"
	IndexSessionUserID = "sessions_user_id_unique"
	IndexSessionToken  = "sessions_jwt_unique"
	IndexSessionTTL    = "sessions_issued_at_ttl"
)
