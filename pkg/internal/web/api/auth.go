package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/riffhouse/riffhouse/pkg/internal/services"
)

func authMiddleware(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || len(token) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	account, err := services.Authenticate(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	c.Locals("user", account)
	return c.Next()
}
