// Package handler holds the admin HTTP surface's fiber handlers
// (SPEC_FULL.md §8: GET /healthz, GET /stats), grounded on the
// teacher's handler.StatsHandler for its fiber.Ctx/zap shape,
// generalized from a usecase-backed statistics lookup to a direct read
// of the in-process aggregator.Aggregator tally.
package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/aggregator"
)

// AdminHandler serves the run's liveness and live-statistics endpoints.
type AdminHandler struct {
	agg    *aggregator.Aggregator
	logger *zap.Logger
}

// NewAdminHandler builds an AdminHandler reading from agg's live tally.
func NewAdminHandler(agg *aggregator.Aggregator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{agg: agg, logger: logger}
}

// Healthz reports liveness; it never depends on the database or cache
// being reachable, since the admin surface outlives a slow run.
func (h *AdminHandler) Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Stats reports the live AnalysisResult tallies and mean fraction per
// bucket (SPEC_FULL.md §8).
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	snap := h.agg.StatsSnapshot()

	buckets := make(map[string]fiber.Map, len(snap.Counts))
	for name, count := range snap.Counts {
		buckets[name] = fiber.Map{
			"count":        count,
			"mean_fraction": snap.Mean(name),
		}
	}

	return c.JSON(fiber.Map{
		"total":     snap.Total,
		"duplicate": snap.Duplicate,
		"results":   buckets,
	})
}
