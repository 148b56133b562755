package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"attendance-backend/models"
)

// Claims structure for JWT. Subject carries the user id.
type Claims struct {
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// JwtGuard is a middleware to validate JWT access tokens.
func JwtGuard(secret string) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusInternalServerError, "JWT_SECRET not configured")
		}
	}

	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing or malformed bearer token")
		}
		tkn, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token: "+err.Error())
		}
		if !tkn.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		c.Locals("claims", tkn.Claims.(*Claims))
		return c.Next()
	}
}

// roleRank orders roles so that admin passes hod checks and hod passes staff checks.
var roleRank = map[models.UserRole]int{
	models.UserRoleStaff: 1,
	models.UserRoleHOD:   2,
	models.UserRoleAdmin: 3,
}

// Satisfies reports whether a holder of have may act as want.
func Satisfies(have, want models.UserRole) bool {
	h, ok := roleRank[have]
	return ok && h >= roleRank[want]
}

// RequireRole checks that the authenticated user holds (or outranks) one of roles.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cls, ok := c.Locals("claims").(*Claims)
		if !ok || cls == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}
		for _, r := range roles {
			if Satisfies(cls.Role, r) {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Insufficient role privileges")
	}
}

// BuildAccessToken signs an HS256 access token for u.
func BuildAccessToken(secret string, u models.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET environment variable is not set")
	}

	now := time.Now()
	claims := &Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GetClaims returns the claims stored by JwtGuard.
func GetClaims(c *fiber.Ctx) (*Claims, error) {
	cls, ok := c.Locals("claims").(*Claims)
	if !ok || cls == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "user claims not found")
	}
	return cls, nil
}

// GetUserIDFromClaims extracts the user ID from the JWT claims in the Fiber context.
func GetUserIDFromClaims(c *fiber.Ctx) (uuid.UUID, error) {
	cls, err := GetClaims(c)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(cls.Subject)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid subject in token")
	}
	return id, nil
}

// GetUsernameFromClaims returns the username, or "" when unauthenticated.
func GetUsernameFromClaims(c *fiber.Ctx) string {
	if cls, err := GetClaims(c); err == nil {
		return cls.Username
	}
	return ""
}
