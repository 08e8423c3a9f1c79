// Package core owns the MongoDB connection and the schema the repositories
// rely on.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/duynhne/account-service/config"
	"github.com/duynhne/account-service/internal/core/repository"
)

// Connect creates a MongoDB client and verifies the primary is reachable.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	timeout := cfg.GetMongoTimeoutDuration()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetAppName(cfg.Service.Name).
		SetTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// Collections returns the handles an AccountStore is built from. The
// durable users handle acknowledges writes only once a majority of the
// replica set has them.
func Collections(db *mongo.Database) repository.Collections {
	majority := options.Collection().SetWriteConcern(writeconcern.Majority())

	return repository.Collections{
		Users:        db.Collection(repository.UsersCollection),
		DurableUsers: db.Collection(repository.UsersCollection, majority),
		Sessions:     db.Collection(repository.SessionsCollection),
	}
}

// EnsureIndexes creates the unique indexes the repositories depend on.
// A positive sessionTTL also creates a TTL index on sessions.issued_at, or
// moves an existing one to the new expiry.
func EnsureIndexes(ctx context.Context, db *mongo.Database, sessionTTL time.Duration) error {
	if err := reconcileSessionTTL(ctx, db, sessionTTL); err != nil {
		return err
	}

	for coll, models := range indexModels(sessionTTL) {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		log.Info().Str("collection", coll).Strs("indexes", names).Msg("Indexes ensured")
	}
	return nil
}

// ttlChange is what an existing session TTL index needs before CreateMany.
type ttlChange int

const (
	ttlUnchanged ttlChange = iota
	ttlModify
	ttlOrphaned // index present, SESSION_TTL unset
)

func ttlSeconds(ttl time.Duration) int32 {
	return int32(ttl / time.Second)
}

func planTTL(specs []mongo.IndexSpecification, sessionTTL time.Duration) ttlChange {
	for _, spec := range specs {
		if spec.Name != repository.IndexSessionTTL {
			continue
		}
		switch {
		case sessionTTL <= 0:
			return ttlOrphaned
		case spec.ExpireAfterSeconds == nil || *spec.ExpireAfterSeconds != ttlSeconds(sessionTTL):
			return ttlModify
		}
	}
	return ttlUnchanged
}

// reconcileSessionTTL applies a changed SESSION_TTL with collMod, since
// createIndexes rejects an existing index name with different options.
func reconcileSessionTTL(ctx context.Context, db *mongo.Database, sessionTTL time.Duration) error {
	specs, err := db.Collection(repository.SessionsCollection).Indexes().ListSpecifications(ctx)
	if err != nil {
		return fmt.Errorf("list indexes on %s: %w", repository.SessionsCollection, err)
	}

	switch planTTL(specs, sessionTTL) {
	case ttlModify:
		cmd := bson.D{
			{Key: "collMod", Value: repository.SessionsCollection},
			{Key: "index", Value: bson.D{
				{Key: "name", Value: repository.IndexSessionTTL},
				{Key: "expireAfterSeconds", Value: ttlSeconds(sessionTTL)},
			}},
		}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("update %s: %w", repository.IndexSessionTTL, err)
		}
		log.Info().Dur("ttl", sessionTTL).Msg("Session TTL index updated")
	case ttlOrphaned:
		log.Warn().
			Str("index", repository.IndexSessionTTL).
			Msg("SESSION_TTL is unset but the TTL index exists; sessions keep expiring until it is dropped")
	}
	return nil
}

func indexModels(sessionTTL time.Duration) map[string][]mongo.IndexModel {
	sessions := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName(repository.IndexSessionUserID).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "jwt", Value: 1}},
			Options: options.Index().SetName(repository.IndexSessionToken).SetUnique(true),
		},
	}
	if sessionTTL > 0 {
		sessions = append(sessions, mongo.IndexModel{
			Keys: bson.D{{Key: "issued_at", Value: 1}},
			Options: options.Index().
				SetName(repository.IndexSessionTTL).
				SetExpireAfterSeconds(ttlSeconds(sessionTTL)),
		})
	}

	return map[string][]mongo.IndexModel{
		repository.UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName(repository.IndexUserEmail).SetUnique(true),
			},
		},
		repository.SessionsCollection: sessions,
	}
}
