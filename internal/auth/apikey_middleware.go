package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"warcalendar/backend/internal/config"
	"warcalendar/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// HeaderAPIKey carries the shared admin secret on mutating requests.
const HeaderAPIKey = "X-API-Key"

// Verifier decides whether a request presents admin credentials.
type Verifier struct {
	apiKey     string
	apiKeyHash []byte
	jwtSecret  string
}

func NewVerifier(cfg *config.Config) *Verifier {
	v := &Verifier{apiKey: cfg.AdminAPIKey, jwtSecret: cfg.JWTSecret}
	if cfg.AdminAPIKeyHash != "" {
		v.apiKeyHash = []byte(cfg.AdminAPIKeyHash)
	}
	return v
}

// CheckAPIKey reports whether key matches the configured secret. A bcrypt
// hash, when configured, takes precedence over the plain key.
func (v *Verifier) CheckAPIKey(key string) bool {
	if key == "" {
		return false
	}
	if v.apiKeyHash != nil {
		return bcrypt.CompareHashAndPassword(v.apiKeyHash, []byte(key)) == nil
	}
	if v.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(v.apiKey)) == 1
}

// CheckBearer reports whether the Authorization header holds a valid admin token.
func (v *Verifier) CheckBearer(header string) bool {
	if v.jwtSecret == "" || header == "" {
		return false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	sub, err := jwt.ParseToken(v.jwtSecret, strings.TrimSpace(parts[1]))
	return err == nil && sub == jwt.AdminSubject
}

// TokensEnabled reports whether bearer tokens can be issued.
func (v *Verifier) TokensEnabled() bool {
	return v.jwtSecret != ""
}

// IssueToken signs an admin bearer token valid for ttl from now.
func (v *Verifier) IssueToken(ttl time.Duration, now time.Time) (string, time.Time, error) {
	return jwt.GenerateToken(v.jwtSecret, ttl, now)
}

// APIKeyMiddleware rejects requests without admin credentials with 403
// before any handler runs. Bearer tokens count only when allowBearer is set.
func APIKeyMiddleware(v *Verifier, allowBearer bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v.CheckAPIKey(c.GetHeader(HeaderAPIKey)) {
			c.Next()
			return
		}
		if allowBearer && v.CheckBearer(c.GetHeader("Authorization")) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Invalid API Key"})
	}
}
