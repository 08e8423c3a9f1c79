package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/account-service/internal/core/domain"
)

var _ domain.UserRepository = (*MongoUserRepository)(nil)

// MongoUserRepository implements domain.UserRepository on the users collection.
type MongoUserRepository struct {
	users   Collection
	durable Collection
	policy  domain.PreferencesPolicy
}

// NewUserRepository creates a new MongoUserRepository.
func NewUserRepository(c Collections, policy domain.PreferencesPolicy) *MongoUserRepository {
	return &MongoUserRepository{
		users:   c.Users,
		durable: c.DurableUsers,
		policy:  policy,
	}
}

func emailFilter(email string) bson.D {
	return bson.D{{Key: "email", Value: email}}
}

// AddUser inserts user through the majority write concern handle so a
// successful return survives the loss of a single replica.
func (r *MongoUserRepository) AddUser(ctx context.Context, user *domain.User) error {
	const op = "users.insert"
	start := time.Now()

	if user == nil {
		return observe(op, start, &domain.StoreError{Op: op, Kind: domain.KindWriteFailed, Err: errors.New("nil user")})
	}

	if _, err := r.durable.InsertOne(ctx, user); err != nil {
		err = translateWrite(op, err)
		logFailure(ctx, err).Str("op", op).Str("email", user.Email).Msg("Failed to add user")
		return observe(op, start, err)
	}

	return observe(op, start, nil)
}

// GetUser returns the user matching the given email.
func (r *MongoUserRepository) GetUser(ctx context.Context, email string) (*domain.User, error) {
	const op = "users.find"
	start := time.Now()

	var user domain.User
	if err := r.users.FindOne(ctx, emailFilter(email)).Decode(&user); err != nil {
		return nil, observe(op, start, translateRead(op, err))
	}

	return &user, observe(op, start, nil)
}

// DeleteUser removes the user matching the given email. Sessions are left
// untouched; AccountStore.DeleteAccount removes both.
func (r *MongoUserRepository) DeleteUser(ctx context.Context, email string) (bool, error) {
	const op = "users.delete"
	start := time.Now()

	res, err := r.users.DeleteOne(ctx, emailFilter(email))
	if err != nil {
		err = translateWrite(op, err)
		logFailure(ctx, err).Str("op", op).Str("email", email).Msg("Failed to delete user")
		return false, observe(op, start, err)
	}

	return res.DeletedCount == 1, observe(op, start, nil)
}

// UpdateUserPreferences replaces the preferences field of the user. When
// no user matches, the repository policy decides between ErrNotFound and
// upserting a sparse record.
func (r *MongoUserRepository) UpdateUserPreferences(ctx context.Context, email string, preferences map[string]any) error {
	const op = "users.update_preferences"
	start := time.Now()

	// nil clears every preference; the field is never stored as null.
	if preferences == nil {
		preferences = map[string]any{}
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "preferences", Value: preferences}}}}

	coll := r.users
	upsert := r.policy == domain.PreferencesUpsert
	if upsert {
		// the upsert may create a record, so it gets account-creation durability
		coll = r.durable
	}

	res, err := coll.UpdateOne(ctx, emailFilter(email), update, options.UpdateOne().SetUpsert(upsert))
	if err != nil {
		err = translateWrite(op, err)
		logFailure(ctx, err).Str("op", op).Str("email", email).Msg("Failed to update preferences")
		return observe(op, start, err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return observe(op, start, notFound(op))
	}
	if res.UpsertedCount > 0 {
		zerolog.Ctx(ctx).Warn().
			Str("op", op).
			Str("email", email).
			Msg("Preferences upserted a record without an account")
	}

	return observe(op, start, nil)
}

// logFailure picks the level for a translated store error: conflicts are
// expected traffic, everything else is an error.
func logFailure(ctx context.Context, err error) *zerolog.Event {
	logger := zerolog.Ctx(ctx)
	if errors.Is(err, domain.ErrDuplicateKey) {
		return logger.Warn().Err(err)
	}
	return logger.Error().Err(err)
}
