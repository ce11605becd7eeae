package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/logging"
)

const (
	RegisterMaxAttempts = 3
	RegisterCooldown    = 30 * time.Minute

	APIMaxRequests = 100
	APIWindow      = time.Minute
)

func tooManyRequests(c *gin.Context, wait time.Duration, message string) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	_ = c.Error(apperrors.TooManyRequests(message))
	c.Abort()
}

// LoginRateLimit bloque un email après des échecs répétés. Seules les réponses
// Unauthorized comptent comme échec, une connexion réussie remet le compteur à zéro.
func LoginRateLimit(guard *cache.LoginGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		logger := logging.FromContext(ctx)

		wait, err := guard.Blocked(ctx, input.Email)
		if err != nil {
			logger.Warn("login guard unavailable", zap.Error(err))
		} else if wait > 0 {
			tooManyRequests(c, wait, fmt.Sprintf("Too many failed attempts. Try again in %d minutes", int(math.Ceil(wait.Minutes()))))
			return
		}

		c.Next()

		switch {
		case failedWith(c, apperrors.ErrUnauthorized):
			remaining, err := guard.Fail(ctx, input.Email)
			if err != nil {
				logger.Warn("login failure not recorded", zap.Error(err))
				return
			}
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		case len(c.Errors) == 0 && c.Writer.Status() == http.StatusOK:
			if err := guard.Reset(ctx, input.Email); err != nil {
				logger.Warn("login guard not reset", zap.Error(err))
			}
		}
	}
}

func failedWith(c *gin.Context, target error) bool {
	for _, e := range c.Errors {
		if errors.Is(e.Err, target) {
			return true
		}
	}
	return false
}

// RegisterRateLimit limite la création de comptes par IP.
func RegisterRateLimit(store *cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "register_attempts:" + c.ClientIP()

		count, err := store.GetRateLimit(ctx, key)
		if err == nil && count >= RegisterMaxAttempts {
			wait, _ := store.TTL(ctx, key)
			tooManyRequests(c, wait, "Too many registrations from this address, try again later")
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			if _, err := store.IncrementRateLimit(ctx, key, RegisterCooldown); err != nil {
				logging.FromContext(ctx).Warn("register attempt not recorded", zap.Error(err))
			}
		}
	}
}

// APIRateLimit limite les requêtes par IP sur une fenêtre fixe. Si Redis tombe, le trafic passe.
func APIRateLimit(store *cache.Store, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "api_requests:" + c.ClientIP()

		count, err := store.IncrementRateLimit(ctx, key, window)
		if err != nil {
			logging.FromContext(ctx).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(limit-count, 0), 10))
		if count > limit {
			tooManyRequests(c, window, "Too many requests, try again in a minute")
			return
		}
		c.Next()
	}
}
