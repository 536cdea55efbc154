package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	v1 := app.Group("/api/v1")
	v1.Get("/snapshots", h.ListSnapshots)
	v1.Get("/snapshots/:coin_id", h.GetSnapshot)
	v1.Get("/runs", h.ListRuns)
}
