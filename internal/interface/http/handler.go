package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/activity-scout/internal/domain/recommend"
	apperrors "github.com/yanqian/activity-scout/pkg/errors"
)

// Handler wires the HTTP transport to the recommendation domain.
type Handler struct {
	recommendSvc recommend.Service
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(recommendSvc recommend.Service, logger *slog.Logger) *Handler {
	return &Handler{
		recommendSvc: recommendSvc,
		logger:       logger.With("component", "http.handler"),
	}
}

// Pointer fields distinguish absent coordinates from zero values; a string or
// null in either field fails binding outright.
type recommendPayload struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	IncludeSynthetic bool     `json:"includeSynthetic"`
}

// Recommend handles POST /api/recommend. Any request carrying two numeric
// coordinates gets a 200 with a full or degraded result; only missing or
// non-numeric input is a client error.
func (h *Handler) Recommend(c *gin.Context) {
	var payload recommendPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid latitude/longitude in request body"})
		return
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid latitude/longitude in request body"})
		return
	}

	resp, err := h.recommendSvc.Recommend(c.Request.Context(), recommend.Request{
		Latitude:         *payload.Latitude,
		Longitude:        *payload.Longitude,
		IncludeSynthetic: payload.IncludeSynthetic,
	})
	if err != nil {
		if apperrors.IsCode(err, "invalid_input") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Unexpected assembly failure: the contract still promises a
		// renderable best-effort body.
		h.logger.Error("recommendation assembly failed", "error", err)
		c.JSON(http.StatusOK, recommend.DegradedResult(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
