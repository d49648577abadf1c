package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"food-order-service/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const IdentityContextKey = "identity"

// Claims is the token payload issued by the auth service.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig controls how the caller is identified.
type AuthConfig struct {
	JWTSecret []byte
	// TrustGatewayHeaders accepts X-User-ID / X-User-Role set by the API
	// gateway when no bearer token is present.
	TrustGatewayHeaders bool
}

// AuthMiddleware resolves the caller identity from a bearer JWT or, when
// allowed, from gateway headers, and stores it on the context.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			who models.Identity
			err error
		)
		if header := c.GetHeader("Authorization"); header != "" {
			who, err = identityFromToken(header, cfg.JWTSecret)
		} else if cfg.TrustGatewayHeaders && c.GetHeader("X-User-ID") != "" {
			who, err = identityFromHeaders(c.GetHeader("X-User-ID"), c.GetHeader("X-User-Role"))
		} else {
			err = fmt.Errorf("missing credentials")
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(IdentityContextKey, who)
		c.Next()
	}
}

func identityFromToken(header string, secret []byte) (models.Identity, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return models.Identity{}, fmt.Errorf("invalid token format")
	}
	claims, err := ParseAndValidateToken(strings.TrimPrefix(header, "Bearer "), secret)
	if err != nil {
		return models.Identity{}, err
	}
	return identityFromHeaders(claims.UserID, claims.Role)
}

// ParseAndValidateToken checks the HMAC signature and expiry of tokenString.
func ParseAndValidateToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func identityFromHeaders(rawID, rawRole string) (models.Identity, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("invalid user id: %w", err)
	}
	role := models.Role(strings.ToLower(strings.TrimSpace(rawRole)))
	switch role {
	case "":
		role = models.RoleCustomer
	case models.RoleCustomer, models.RoleOwner, models.RoleAdmin:
	default:
		return models.Identity{}, fmt.Errorf("unknown role %q", rawRole)
	}
	return models.Identity{UserID: id, Role: role}, nil
}

// GetIdentity returns the caller stored by AuthMiddleware.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(IdentityContextKey)
	if !ok {
		return models.Identity{}, false
	}
	who, ok := v.(models.Identity)
	return who, ok
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		for _, r := range roles {
			if who.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}
