package main

import (
	"fmt"

	"book-chunker/config"
	"book-chunker/internal/api/chunking"
	"book-chunker/internal/api/healthcheck"
	"book-chunker/internal/api/upload"
	"book-chunker/internal/middleware"
	"book-chunker/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

func main() {
	if err := config.Init("config.yaml"); err != nil {
		logger.Fatal(err, "failed to load config")
	}

	app := fiber.New(fiber.Config{
		AppName:     config.Cfg.Server.AppName,
		BodyLimit:   config.Cfg.Server.BodyLimit,
		Concurrency: config.Cfg.Server.Concurrency,
	})

	app.Use(middleware.PanicRecovery())
	app.Use(middleware.ConnectionLimit(middleware.NewConnectionLimiter(config.Cfg.Server.Concurrency)))
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.Cfg.Cors.AllowOrigins,
		AllowMethods: config.Cfg.Cors.AllowMethods,
		AllowHeaders: config.Cfg.Cors.AllowHeaders,
	}))

	// routes
	healthcheck.RegisterRoutes(app)
	chunking.RegisterRoutes(app)
	upload.RegisterRoutes(app)

	addr := fmt.Sprintf(":%d", config.Cfg.Server.Port)
	if err := app.Listen(addr); err != nil {
		logger.Error(err, "server error")
	}
}
