package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/internal/store"
)

const queryTimeout = 3 * time.Second

// Handler serves the read-side view of persisted market data.
type Handler struct {
	Logger *zap.Logger
	Store  store.Store
}

func NewHandler(logger *zap.Logger, st store.Store) *Handler {
	return &Handler{Logger: logger, Store: st}
}

// GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), queryTimeout)
	defer cancel()

	if err := h.Store.HealthCheck(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// GET /api/v1/snapshots
func (h *Handler) ListSnapshots(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), queryTimeout)
	defer cancel()

	snapshots, err := h.Store.ListSnapshots(ctx)
	if err != nil {
		h.Logger.Error("api.list_snapshots_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

// GET /api/v1/snapshots/:coin_id
func (h *Handler) GetSnapshot(c *fiber.Ctx) error {
	coinID := c.Params("coin_id")
	if coinID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing coin_id"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), queryTimeout)
	defer cancel()

	snap, err := h.Store.GetSnapshot(ctx, coinID)
	if err != nil {
		h.Logger.Error("api.get_snapshot_failed", zap.String("coin_id", coinID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if snap == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown coin_id"})
	}

	return c.Status(fiber.StatusOK).JSON(snap)
}

// GET /api/v1/runs?limit=
func (h *Handler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	ctx, cancel := context.WithTimeout(c.Context(), queryTimeout)
	defer cancel()

	runs, err := h.Store.ListRuns(ctx, limit)
	if err != nil {
		h.Logger.Error("api.list_runs_failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"count": len(runs),
		"runs":  runs,
	})
}
