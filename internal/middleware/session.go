package middleware

import (
	"context"
	"encoding/json"
	"time"

	"vestoria-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionCookieName = "vestoria.sid"
	sessionPrefix     = "session:"
	sessionMaxAge     = 24 * time.Hour
	userLocal         = "user"
)

// SessionUser is the shape stored in Redis under "session:<id>".
type SessionUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Session loads the session user from Redis into Locals. Missing or
// broken sessions leave the user unset; RequireAuth draws the line.
func Session(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(sessionCookieName)
		if sessionID != "" && rdb != nil {
			b, err := rdb.Get(context.Background(), sessionPrefix+sessionID).Bytes()
			if err == nil {
				var user SessionUser
				if json.Unmarshal(b, &user) == nil && user.UserID != "" {
					c.Locals(userLocal, &user)
				}
			}
		}
		return c.Next()
	}
}

// RequireAuth ensures a user is in the session. Returns 401 with the
// standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(userLocal).(*SessionUser); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user's account ID. Only valid
// behind RequireAuth.
func CurrentUser(c *fiber.Ctx) (uuid.UUID, error) {
	user, ok := c.Locals(userLocal).(*SessionUser)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	id, err := uuid.Parse(user.UserID)
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

// SetSessionUser stores the user in Redis and sets the session cookie.
// Used after login by the auth surface (out of scope here) and by tests.
func SetSessionUser(c *fiber.Ctx, rdb *redis.Client, user SessionUser) error {
	sid := uuid.New().String()
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := rdb.Set(context.Background(), sessionPrefix+sid, b, sessionMaxAge).Err(); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return nil
}
