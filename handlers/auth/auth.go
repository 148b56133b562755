package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	mw "attendance-backend/middleware"
	"attendance-backend/models"
	"attendance-backend/validation"
)

// Store holds login accounts and their refresh sessions.
type Store interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	SaveSession(ctx context.Context, s models.Session) error
	SessionByHash(ctx context.Context, hash string) (models.Session, error)
	RevokeSession(ctx context.Context, hash string) error
}

type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func Register(g fiber.Router, st Store, cfg Config, v *validation.Validator, jwtGuard, requireAdmin, loginLimiter fiber.Handler) {
	// Public routes
	g.Post("/login", loginLimiter, login(st, cfg))
	g.Post("/refresh", refresh(st, cfg))

	// Protected routes
	g.Get("/me", jwtGuard, me())
	g.Post("/logout", jwtGuard, logout(st))

	// Admin-only routes
	g.Post("/register", jwtGuard, requireAdmin, register(st, v))
}

// ---------- Helper Functions ----------

// BcryptHash hashes a plain text password.
func BcryptHash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password cannot be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(b), nil
}

// BcryptVerify compares a hashed password with a plain text password.
func BcryptVerify(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// sha256b64 hashes a string with SHA256 and base64-encodes it.
func sha256b64(s string) string {
	h := sha256.Sum256([]byte(s))
	return base64.StdEncoding.EncodeToString(h[:])
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate refresh token")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EnsureUser creates username with the given role unless it already exists.
func EnsureUser(ctx context.Context, st Store, username, password string, role models.UserRole) (bool, error) {
	if _, err := st.UserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}
	hash, err := BcryptHash(password)
	if err != nil {
		return false, err
	}
	if _, err := st.CreateUser(ctx, models.User{Username: username, PasswordHash: hash, Role: role}); err != nil {
		return false, err
	}
	return true, nil
}

// ---------- /auth/login ----------
func login(st Store, cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.LoginRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		username := strings.TrimSpace(b.Username)
		if username == "" || b.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Username and password required")
		}

		u, err := st.UserByUsername(c.UserContext(), username)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
			}
			return err
		}
		if !BcryptVerify(u.PasswordHash, b.Password) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return issueTokens(c, st, cfg, u)
	}
}

// issueTokens signs an access token and stores a hashed refresh token.
func issueTokens(c *fiber.Ctx, st Store, cfg Config, u models.User) error {
	accessToken, err := mw.BuildAccessToken(cfg.Secret, u, cfg.AccessTTL)
	if err != nil {
		return errors.Wrap(err, "failed to build access token")
	}

	raw, err := newRefreshToken()
	if err != nil {
		return err
	}
	err = st.SaveSession(c.UserContext(), models.Session{
		UserID:    u.ID,
		TokenHash: sha256b64(raw),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IP:        c.IP(),
		ExpiresAt: time.Now().Add(cfg.RefreshTTL),
	})
	if err != nil {
		return err
	}

	return c.JSON(models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: &raw,
		ExpiresIn:    int(cfg.AccessTTL.Seconds()),
		Role:         u.Role,
		Username:     u.Username,
	})
}

// ---------- /auth/refresh ----------
func refresh(st Store, cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.RefreshRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		if strings.TrimSpace(b.RefreshToken) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Refresh token required")
		}

		ctx := c.UserContext()
		hashR := sha256b64(b.RefreshToken)
		sess, err := st.SessionByHash(ctx, hashR)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
			}
			return err
		}
		if sess.RevokedAt != nil || time.Now().After(sess.ExpiresAt) {
			if sess.RevokedAt == nil {
				_ = st.RevokeSession(ctx, hashR)
			}
			return fiber.NewError(fiber.StatusUnauthorized, "Expired or revoked refresh token")
		}

		u, err := st.UserByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
			}
			return err
		}

		// Rotate refresh: revoke old & issue new
		if err := st.RevokeSession(ctx, hashR); err != nil {
			return err
		}
		return issueTokens(c, st, cfg, u)
	}
}

// ---------- /auth/me ----------
func me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cls, err := mw.GetClaims(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user_id": cls.Subject, "username": cls.Username, "role": cls.Role})
	}
}

// ---------- /auth/logout ----------
func logout(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.RefreshRequest
		if c.BodyParser(&b) == nil && strings.TrimSpace(b.RefreshToken) != "" {
			if err := st.RevokeSession(c.UserContext(), sha256b64(b.RefreshToken)); err != nil {
				return err
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---------- /auth/register (admin-only) ----------
func register(st Store, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.RegisterUserRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		b.Username = strings.TrimSpace(b.Username)
		if err := v.Struct(b); err != nil {
			return err
		}
		hash, err := BcryptHash(b.Password)
		if err != nil {
			return err
		}
		u, err := st.CreateUser(c.UserContext(), models.User{Username: b.Username, PasswordHash: hash, Role: b.Role})
		if err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return fiber.NewError(fiber.StatusConflict, "Username already registered")
			}
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}
