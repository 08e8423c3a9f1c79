package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/account-service/internal/core/domain"
	"github.com/duynhne/account-service/internal/logger"
	"github.com/duynhne/account-service/middleware"
)

// issueAttempts bounds retries when a freshly minted token collides with
// one already stored.
const issueAttempts = 2

// AuthService implements account and session business rules.
// It depends on the AccountStore interface (injected via constructor) and
// MUST NOT access the database driver directly.
type AuthService struct {
	store  domain.AccountStore
	tokens *TokenIssuer
	cost   int
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(store domain.AccountStore, tokens *TokenIssuer) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
}

// normalizeEmail returns the key an address is stored under.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and opens its first session.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	email := normalizeEmail(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:    email,
		Name:     req.Name,
		Password: string(hash),
	}
	if err := s.store.AddUser(ctx, user); err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrDuplicateKey) {
			span.SetAttributes(attribute.Bool("registration.success", false))
			return nil, fmt.Errorf("register user %q: %w", email, ErrUserExists)
		}
		return nil, storeFailure("insert user", err)
	}

	token, err := s.issueSession(ctx, user.Email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("registration.success", true))
	span.AddEvent("user.registered")

	return &domain.AuthResponse{Token: token, User: *user}, nil
}

// Login verifies credentials and replaces the user's session.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	email := normalizeEmail(req.Email)

	user, err := s.store.GetUser(ctx, email)
	if err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		if errors.Is(err, domain.ErrNotFound) {
			span.AddEvent("authentication.failed")
			return nil, fmt.Errorf("authenticate user %q: %w", email, ErrUserNotFound)
		}
		span.RecordError(err)
		return nil, storeFailure("query user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", email, ErrInvalidCredentials)
	}

	token, err := s.issueSession(ctx, user.Email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("auth.success", true))
	span.AddEvent("user.authenticated")

	return &domain.AuthResponse{Token: token, User: *user}, nil
}

// issueSession mints a token and stores it as the user's only session.
func (s *AuthService) issueSession(ctx context.Context, userID string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < issueAttempts; attempt++ {
		token, err := s.tokens.Issue(userID)
		if err != nil {
			return "", err
		}
		err = s.store.CreateUserSession(ctx, userID, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, domain.ErrDuplicateToken) {
			return "", storeFailure("create session", err)
		}
		lastErr = err
	}
	return "", storeFailure("create session", lastErr)
}

// Authenticate resolves token to the user id it belongs to. The token must
// be the one currently stored for that user; a token replaced by a later
// login is rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	_, userID, err := s.authenticate(ctx, token)
	return userID, err
}

// authenticate is Authenticate returning a context whose logger carries the
// user id, for the store calls made on the user's behalf.
func (s *AuthService) authenticate(ctx context.Context, token string) (context.Context, string, error) {
	userID, err := s.tokens.Subject(token)
	if err != nil {
		return ctx, "", err
	}
	ctx = logger.WithFields(ctx, map[string]string{"user_id": userID})

	session, err := s.store.GetUserSession(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ctx, "", fmt.Errorf("lookup session: %w", ErrSessionNotFound)
		}
		return ctx, "", storeFailure("query session", err)
	}
	if session.JWT != token {
		return ctx, "", fmt.Errorf("lookup session: token superseded: %w", ErrSessionNotFound)
	}

	return ctx, userID, nil
}

// GetUserByToken returns the account owning the session token (for /auth/me).
func (s *AuthService) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.get_user_by_token", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	ctx, userID, err := s.authenticate(ctx, token)
	if err != nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookup user %q: %w", userID, ErrUserNotFound)
		}
		return nil, storeFailure("query user", err)
	}

	span.SetAttributes(attribute.Bool("session.valid", true))
	return user, nil
}

// Logout removes the session the token belongs to.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	ctx, userID, err := s.authenticate(ctx, token)
	if err != nil {
		return err
	}

	if _, err := s.store.DeleteUserSessions(ctx, userID); err != nil {
		span.RecordError(err)
		return storeFailure("delete sessions", err)
	}

	span.AddEvent("user.logged_out")
	return nil
}

// UpdatePreferences replaces the preferences of the token's account.
func (s *AuthService) UpdatePreferences(ctx context.Context, token string, preferences map[string]any) error {
	ctx, span := middleware.StartSpan(ctx, "auth.update_preferences", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("preferences.count", len(preferences)),
	))
	defer span.End()

	ctx, userID, err := s.authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := s.store.UpdateUserPreferences(ctx, userID, preferences); err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("update preferences of %q: %w", userID, ErrUserNotFound)
		}
		return storeFailure("update preferences", err)
	}

	return nil
}

// DeleteAccount removes the token's account together with its sessions.
func (s *AuthService) DeleteAccount(ctx context.Context, token string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.delete_account", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	ctx, userID, err := s.authenticate(ctx, token)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeleteAccount(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return storeFailure("delete account", err)
	}
	if !deleted {
		return fmt.Errorf("delete account %q: %w", userID, ErrUserNotFound)
	}

	span.AddEvent("user.deleted")
	return nil
}
