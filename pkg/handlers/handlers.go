package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/arnavshah/intervention-scheduler-api/pkg/auth"
	"github.com/arnavshah/intervention-scheduler-api/pkg/database"
	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
	"github.com/arnavshah/intervention-scheduler-api/pkg/session"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB       *gorm.DB
	Auth     *auth.Authenticator
	Sessions *session.Store
	Logger   zerolog.Logger
}

// New wires a Handler
func New(db *gorm.DB, a *auth.Authenticator, sessions *session.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		DB:       db,
		Auth:     a,
		Sessions: sessions,
		Logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key, refuses revoked or exhausted keys,
// and counts every request that gets through against the key's daily usage
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		name, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		apiKey, err := h.loadKey(key, name)
		if err != nil {
			h.Logger.Error().Err(err).Str("key_name", name).Msg("load api key")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}
		if apiKey.Revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}

		now := time.Now()
		if apiKey.RateLimit > 0 {
			used, err := database.RequestsOn(h.DB, apiKey.ID, now)
			if err != nil {
				h.Logger.Warn().Err(err).Uint("key_id", apiKey.ID).Msg("read usage")
			} else if used >= apiKey.RateLimit {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily rate limit exceeded"})
				return
			}
		}
		h.DB.Model(apiKey).Update("last_used", now)

		c.Set("apiKey", apiKey)
		c.Set("userID", name)
		c.Next()

		h.recordUsage(c, apiKey)
	}
}

// loadKey finds the record of a signed key. Keys minted offline are registered
// on first use; revoked records are returned as they are.
func (h *Handler) loadKey(key, name string) (*database.APIKey, error) {
	var apiKey database.APIKey
	err := h.DB.Where(&database.APIKey{Key: key}).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apiKey = database.APIKey{
			Key:       key,
			Name:      name,
			Preview:   auth.KeyPreview(key),
			RateLimit: 10000,
		}
		err = h.DB.Create(&apiKey).Error
	}
	if err != nil {
		return nil, err
	}
	return &apiKey, nil
}

func currentKey(c *gin.Context) *database.APIKey {
	if raw, ok := c.Get("apiKey"); ok {
		if key, ok := raw.(*database.APIKey); ok {
			return key
		}
	}
	return nil
}

func owner(c *gin.Context) string {
	return c.GetString("userID")
}

// countUsage adds validations or submissions to what the current request is recorded with
func countUsage(c *gin.Context, delta database.UsageDelta) {
	if raw, ok := c.Get("usageDelta"); ok {
		prev := raw.(database.UsageDelta)
		delta.Validations += prev.Validations
		delta.Submissions += prev.Submissions
	}
	c.Set("usageDelta", delta)
}

func (h *Handler) recordUsage(c *gin.Context, key *database.APIKey) {
	var delta database.UsageDelta
	if raw, ok := c.Get("usageDelta"); ok {
		delta = raw.(database.UsageDelta)
	}
	if err := database.RecordUsage(h.DB, key.ID, time.Now(), delta); err != nil {
		h.Logger.Warn().Err(err).Uint("key_id", key.ID).Msg("record usage")
	}
}

// abortWithError maps engine and session errors onto HTTP responses
func (h *Handler) abortWithError(c *gin.Context, err error) {
	var rej *scheduler.Rejection
	switch {
	case errors.As(err, &rej):
		status := http.StatusConflict
		if rej.Kind == models.KindUnknownIntervention {
			status = http.StatusNotFound
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":            rej.Message,
			"kind":             rej.Kind,
			"intervention_ids": rej.InterventionIDs,
		})
	case errors.Is(err, session.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.Contains(req.Name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not contain '.'"})
		return
	}
	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	var apiKey database.APIKey
	err := h.DB.Where(&database.APIKey{Key: key}).First(&apiKey).Error
	switch {
	case err == nil && !apiKey.Revoked:
		c.JSON(http.StatusConflict, gin.H{"error": "Key already exists for " + req.Name})
		return
	case err == nil:
		// keys are derived from the name, so reissuing one reinstates the revoked record
		if err := h.DB.Model(&apiKey).Updates(map[string]interface{}{"revoked": false, "rate_limit": req.RateLimit}).Error; err != nil {
			h.abortWithError(c, err)
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		apiKey = database.APIKey{
			Key:       key,
			Name:      req.Name,
			Preview:   auth.KeyPreview(key),
			RateLimit: req.RateLimit,
		}
		if err := h.DB.Create(&apiKey).Error; err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Could not create key record"})
			return
		}
	default:
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Find(&keys).Error; err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey marks an API key as revoked. The record stays so the signed key
// cannot register itself again on its next request.
func (h *Handler) RevokeKey(c *gin.Context) {
	res := h.DB.Model(&database.APIKey{}).Where("id = ?", c.Param("id")).Update("revoked", true)
	if res.Error != nil {
		h.abortWithError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}
	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", c.Param("id")).Update("rate_limit", req.RateLimit).Error; err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}
