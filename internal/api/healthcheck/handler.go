package healthcheck

import (
	"github.com/gofiber/fiber/v3"
)

func HandleHealth(c fiber.Ctx) error {
	return c.SendString("ok")
}
