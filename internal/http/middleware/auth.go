package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"

	headerUserID     = "X-User-ID"
	headerTenantID   = "X-Tenant-ID"
	headerClearances = "X-Clearances"
)

// Claims is the token payload. The subject is the user ID.
type Claims struct {
	TenantID   string   `json:"tenant_id"`
	Clearances []string `json:"clearances,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	mode   string
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, mode, secret string) *AuthMiddleware {
	if mode == "" {
		mode = AuthModeJWT
	}
	return &AuthMiddleware{
		log:    log.With("Middleware", "AuthMiddleware"),
		mode:   mode,
		secret: []byte(secret),
	}
}

// RequireAuth resolves the caller into a *types.Principal on the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			p   *types.Principal
			err error
		)
		switch am.mode {
		case AuthModeHeader:
			p, err = principalFromHeaders(c)
		default:
			p, err = am.principalFromToken(extractTokenFromAll(c))
		}
		if err != nil {
			am.log.Debug("auth rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": err.Error(), "code": "unauthorized"},
			})
			return
		}
		if p.UserID == "" || p.TenantID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func (am *AuthMiddleware) principalFromToken(tokenString string) (*types.Principal, error) {
	if tokenString == "" {
		return nil, errors.New("missing or invalid token")
	}
	if len(am.secret) == 0 {
		return nil, errors.New("token auth not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &types.Principal{
		UserID:     claims.Subject,
		TenantID:   claims.TenantID,
		Clearances: types.NormalizeSet(claims.Clearances),
	}, nil
}

func principalFromHeaders(c *gin.Context) (*types.Principal, error) {
	userID := strings.TrimSpace(c.GetHeader(headerUserID))
	if userID == "" {
		return nil, errors.New("missing " + headerUserID)
	}
	return &types.Principal{
		UserID:     userID,
		TenantID:   strings.TrimSpace(c.GetHeader(headerTenantID)),
		Clearances: types.NormalizeSet(strings.Split(c.GetHeader(headerClearances), ",")),
	}, nil
}

// SignToken issues an HS256 token for p.
func SignToken(secret string, p types.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID:   p.TenantID,
		Clearances: p.Clearances,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
