package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddleware guards operational endpoints with a static API key.
type AdminMiddleware struct {
	apiKey string
	hashed bool
}

// NewAdminMiddleware creates admin middleware for apiKey, which may be the
// key itself or its bcrypt hash. An empty key rejects every request.
func NewAdminMiddleware(apiKey string) *AdminMiddleware {
	_, err := bcrypt.Cost([]byte(apiKey))
	return &AdminMiddleware{apiKey: apiKey, hashed: apiKey != "" && err == nil}
}

// RequireAdminAuth accepts the key as a Bearer token or in X-API-Key.
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok && am.ValidateAdminKey(token) {
			c.Next()
			return
		}
		if am.ValidateAdminKey(c.GetHeader("X-API-Key")) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "Unauthorized",
			"message":    "Valid admin API key required for this endpoint",
			"request_id": GetRequestID(c),
		})
	}
}

// ValidateAdminKey checks key against the configured bcrypt hash, or compares
// it with a plain key in constant time.
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	if am.apiKey == "" || key == "" {
		return false
	}
	if am.hashed {
		return bcrypt.CompareHashAndPassword([]byte(am.apiKey), []byte(key)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(am.apiKey)) == 1
}
