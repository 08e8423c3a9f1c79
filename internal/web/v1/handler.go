package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/account-service/internal/core/domain"
	logicv1 "github.com/duynhne/account-service/internal/logic/v1"
	"github.com/duynhne/account-service/internal/logger"
	"github.com/duynhne/account-service/middleware"
)

// Handler groups HTTP handlers for the account API v1.
// Dependencies are injected via the constructor.
type Handler struct {
	auth *logicv1.AuthService
}

// NewHandler creates a new Handler with the given AuthService.
func NewHandler(auth *logicv1.AuthService) *Handler {
	return &Handler{auth: auth}
}

// RegisterRoutes registers all API v1 routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.Register)
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", h.GetMe)
	rg.PUT("/users/me/preferences", h.UpdatePreferences)
	rg.DELETE("/users/me", h.DeleteMe)
}

func startSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

// Login handles HTTP request for user login.
func (h *Handler) Login(c *gin.Context) {
	span := startSpan(c)
	defer span.End()
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		log.Warn().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Msg("Login failed")

		switch {
		case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
			// Don't reveal whether the account exists
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		default:
			respondError(c, err)
		}
		return
	}

	log.Info().Str("user_id", response.User.Email).Msg("Login successful")
	c.JSON(http.StatusOK, response)
}

// Register handles HTTP request for user registration.
func (h *Handler) Register(c *gin.Context) {
	span := startSpan(c)
	defer span.End()
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		log.Warn().Err(err).Msg("Invalid request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.auth.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("email", req.Email).Msg("Registration failed")
		respondError(c, err)
		return
	}

	log.Info().Str("user_id", response.User.Email).Msg("Registration successful")
	c.JSON(http.StatusCreated, response)
}

// GetMe returns the account owning the bearer token.
// GET /api/v1/auth/me
// Authorization: Bearer <token>
func (h *Handler) GetMe(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	token, ok := bearerToken(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUserByToken(c.Request.Context(), token)
	if err != nil {
		span.RecordError(err)
		logger.FromContext(c.Request.Context()).Warn().Err(err).Msg("Token lookup failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout ends the session of the bearer token.
func (h *Handler) Logout(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	token, ok := bearerToken(c)
	if !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdatePreferences replaces the preferences of the bearer's account.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	token, ok := bearerToken(c)
	if !ok {
		return
	}

	var req domain.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.UpdatePreferences(c.Request.Context(), token, req.Preferences); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMe deletes the bearer's account and its sessions.
func (h *Handler) DeleteMe(c *gin.Context) {
	span := startSpan(c)
	defer span.End()

	token, ok := bearerToken(c)
	if !ok {
		return
	}

	if err := h.auth.DeleteAccount(c.Request.Context(), token); err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info().Msg("Account deleted")
	c.Status(http.StatusNoContent)
}

// bearerToken extracts "Authorization: Bearer <token>", writing a 401 when
// it is absent or malformed.
func bearerToken(c *gin.Context) (string, bool) {
	const bearerPrefix = "Bearer "

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return "", false
	}
	if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
		return "", false
	}
	return authHeader[len(bearerPrefix):], true
}

// respondError maps logic errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, logicv1.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Account already exists"})
	case errors.Is(err, logicv1.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
	case errors.Is(err, logicv1.ErrInvalidToken), errors.Is(err, logicv1.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	case errors.Is(err, logicv1.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, logicv1.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
