// Package middleware provides authentication, logging, tracing and rate
// limiting middleware for the HTTP API.
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"snapgram/internal/appwrite"
	"snapgram/internal/config"
	"snapgram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "snapgram-api"
	tokenAudience = "snapgram-client"

	defaultTokenTTL = 24 * time.Hour

	// LocalAccountID is the fiber local holding the authenticated account id.
	LocalAccountID = "accountID"
	// LocalSessionID is the fiber local holding the platform session id.
	LocalSessionID = "sessionID"
)

var cfg *config.Config

// ErrNoSecret is returned when tokens are issued or parsed before InitMiddleware.
var ErrNoSecret = errors.New("jwt secret not configured")

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// Claims is the payload of a BFF token. The subject is the platform account
// id; Secret is the platform session secret the token stands in for.
type Claims struct {
	SessionID string `json:"sid"`
	Secret    string `json:"sec"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the given platform session.
func IssueToken(accountID, sessionID, secret string, expires time.Time) (string, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return "", ErrNoSecret
	}
	ttl := cfg.JWTTTL()
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := time.Now()
	if expires.IsZero() || expires.After(now.Add(ttl)) {
		expires = now.Add(ttl)
	}
	claims := Claims{
		SessionID: sessionID,
		Secret:    secret,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	if cfg == nil || cfg.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || claims.Secret == "" {
		return nil, errors.New("token is missing subject or session")
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// attach stores the identity in locals and binds the platform session to the
// request context so downstream calls run as the user.
func attach(c *fiber.Ctx, claims *Claims) {
	c.Locals(LocalAccountID, claims.Subject)
	c.Locals(LocalSessionID, claims.SessionID)

	ctx := appwrite.WithSession(c.UserContext(), claims.Secret)
	ctx = context.WithValue(ctx, AccountIDKey, claims.Subject)
	c.SetUserContext(ctx)
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization header required"))
	}
	tokenString, ok := bearerToken(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid authorization header format"))
	}

	claims, err := ParseToken(tokenString)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	attach(c, claims)
	return c.Next()
}

// OptionalAuth attaches the session when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(c *fiber.Ctx) error {
	if tokenString, ok := bearerToken(c); ok {
		if claims, err := ParseToken(tokenString); err == nil {
			attach(c, claims)
		}
	}
	return c.Next()
}

// WebSocketAuthRequired validates tokens from the query string for websocket
// upgrades, falling back to the Authorization header.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		var ok bool
		tokenString, ok = bearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token required"))
		}
	}

	claims, err := ParseToken(tokenString)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	attach(c, claims)
	return c.Next()
}

// AccountID returns the authenticated account id, or "" for anonymous requests.
func AccountID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalAccountID).(string)
	return id
}
