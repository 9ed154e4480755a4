package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

type contextKey string

const userIDKey contextKey = "authUserID"

// GetUserID retrieves the authenticated subject from context
func GetUserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if value, ok := ctx.Value(userIDKey).(string); ok && value != "" {
		return value, true
	}
	return "", false
}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// JWTMiddleware validates HS256 bearer tokens and injects the subject as the
// user id. When required is false, requests without an Authorization header
// pass through anonymously; a header that is present must still be valid.
func JWTMiddleware(secret, audience string, required bool) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	audience = strings.TrimSpace(audience)

	return func(c *gin.Context) {
		header := c.Request.Header.Get("Authorization")
		if header == "" && !required {
			c.Next()
			return
		}

		tokenString, err := extractBearerToken(header)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}
		if secret == "" {
			unauthorized(c, "authentication is not configured")
			return
		}

		subject, err := ParseToken(secret, audience, tokenString)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), subject))
		c.Set(string(userIDKey), subject)

		c.Next()
	}
}

// ParseToken validates tokenString and returns its subject
func ParseToken(secret, audience, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return "", errors.New("invalid audience")
		}
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

// IssueToken mints an HS256 token for subject, valid for ttl
func IssueToken(secret, audience, subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("JWT secret is required")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("token missing")
	}
	return token, nil
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
