package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AdminCookie holds the admin session token.
const AdminCookie = "admin_token"

// TokenVerifier checks an admin session token.
type TokenVerifier interface {
	VerifyToken(token string) error
}

// RequireAdmin rejects requests without a valid admin session. The token is
// read from the admin cookie, or from a Bearer Authorization header for tools.
func RequireAdmin(v TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(AdminCookie)
		if token == "" {
			if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if err := v.VerifyToken(token); err != nil {
			return HandleError(c, err)
		}
		return c.Next()
	}
}
