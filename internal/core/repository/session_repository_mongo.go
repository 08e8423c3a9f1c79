package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/account-service/internal/core/domain"
)

var _ domain.SessionRepository = (*MongoSessionRepository)(nil)

// MongoSessionRepository implements domain.SessionRepository on the
// sessions collection.
type MongoSessionRepository struct {
	sessions Collection
	now      func() time.Time
}

// NewSessionRepository creates a new MongoSessionRepository.
func NewSessionRepository(c Collections) *MongoSessionRepository {
	return &MongoSessionRepository{
		sessions: c.Sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func userIDFilter(userID string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}}
}

// CreateUserSession upserts the session of userID in a single UpdateOne.
//
// Two first logins racing on the upsert insert can both miss the filter;
// the loser gets a duplicate key on the user_id index and is retried once,
// which then matches the winner's document and replaces its token.
func (r *MongoSessionRepository) CreateUserSession(ctx context.Context, userID, jwt string) error {
	const op = "sessions.upsert"
	start := time.Now()

	filter := userIDFilter(userID)
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "user_id", Value: userID},
		{Key: "jwt", Value: jwt},
		{Key: "issued_at", Value: r.now()},
	}}}
	opts := options.UpdateOne().SetUpsert(true)

	_, err := r.sessions.UpdateOne(ctx, filter, update, opts)
	if err != nil && mongo.IsDuplicateKeyError(err) && isUserIDIndex(duplicateIndex(err)) {
		_, err = r.sessions.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		err = translateSessionWrite(op, err)
		logFailure(ctx, err).Str("op", op).Str("user_id", userID).Msg("Failed to create session")
		return observe(op, start, err)
	}

	return observe(op, start, nil)
}

// GetUserSession returns the session of userID.
func (r *MongoSessionRepository) GetUserSession(ctx context.Context, userID string) (*domain.Session, error) {
	const op = "sessions.find"
	start := time.Now()

	var session domain.Session
	if err := r.sessions.FindOne(ctx, userIDFilter(userID)).Decode(&session); err != nil {
		return nil, observe(op, start, translateRead(op, err))
	}

	return &session, observe(op, start, nil)
}

// DeleteUserSessions removes every session of userID.
func (r *MongoSessionRepository) DeleteUserSessions(ctx context.Context, userID string) (bool, error) {
	const op = "sessions.delete"
	start := time.Now()

	res, err := r.sessions.DeleteMany(ctx, userIDFilter(userID))
	if err != nil {
		err = translateWrite(op, err)
		logFailure(ctx, err).Str("op", op).Str("user_id", userID).Msg("Failed to delete sessions")
		return false, observe(op, start, err)
	}

	return res.DeletedCount > 0, observe(op, start, nil)
}

// translateSessionWrite is translateWrite with duplicate keys on any index
// other than user_id reported as a token already held by another user.
func translateSessionWrite(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) && !isUserIDIndex(duplicateIndex(err)) {
		return &domain.StoreError{Op: op, Kind: domain.KindDuplicateToken, Err: err}
	}
	return translateWrite(op, err)
}

func isUserIDIndex(name string) bool {
	return name == IndexSessionUserID || strings.HasPrefix(name, "user_id")
}
