package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// IndexStats reports the loaded retrieval state for health checks.
type IndexStats struct {
	Count func(ctx context.Context) (int, error)
	Metas int
}

type CheckHandler struct {
	stats IndexStats
}

func NewCheckHandler(stats IndexStats) *CheckHandler {
	return &CheckHandler{stats: stats}
}

func (h CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	vectors := -1
	if h.stats.Count != nil {
		if n, err := h.stats.Count(c.Context()); err == nil {
			vectors = n
		}
	}
	return c.JSON(fiber.Map{
		"result":       "ok",
		"index_rows":   vectors,
		"meta_records": h.stats.Metas,
	})
}
