package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"aaronromeo.com/triager/internal/pipeline"
)

// ReportsKey is the c.Locals key holding the *pipeline.ReportStore.
const ReportsKey = "reports"

// Healthz reports liveness
func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Status renders the last poll cycle report
func Status(c *fiber.Ctx) error {
	store, ok := c.Locals(ReportsKey).(*pipeline.ReportStore)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("Could not retrieve report store")
	}

	report, cycles, ok := store.Last()
	if !ok {
		return c.JSON(fiber.Map{
			"cycles": 0,
			"last":   nil,
		})
	}
	return c.JSON(fiber.Map{
		"cycles":       cycles,
		"last":         report,
		"last_age_sec": int(time.Since(report.FinishedAt).Seconds()),
	})
}

// NotFound renders the 404 body
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}

// Register mounts the status routes on app, sharing store with every request.
func Register(app *fiber.App, store *pipeline.ReportStore) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(ReportsKey, store)
		return c.Next()
	})
	app.Get("/healthz", Healthz)
	app.Get("/status", Status)
	app.Use(NotFound)
}
