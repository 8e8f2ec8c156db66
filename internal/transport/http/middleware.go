package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

const (
	localUserID  = "userID"
	localIsAdmin = "isAdmin"
)

// requireAuth validates the bearer token and stashes the caller identity in
// request locals.
func requireAuth(auth *app.AuthService, tokens *app.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return domain.ErrUnauthorized
		}
		userID, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return err
		}
		u, err := auth.LookupUser(c.UserContext(), userID)
		if err != nil {
			return err
		}
		c.Locals(localUserID, u.ID)
		c.Locals(localIsAdmin, u.IsAdmin)
		return c.Next()
	}
}

// requireAdmin gates content management routes. Must run after requireAuth.
func requireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isAdmin, _ := c.Locals(localIsAdmin).(bool)
		if !isAdmin {
			return domain.ErrForbidden
		}
		return c.Next()
	}
}

func callerID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
