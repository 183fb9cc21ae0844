package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/config"
	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
	"github.com/mamadbah2/dairy-advisor/internal/session"
)

// SessionHandler adapts the session store to the HTTP surface.
type SessionHandler struct {
	store    *session.Store
	defaults config.SessionConfig
	logger   *zap.Logger
}

// NewSessionHandler constructs the HTTP handler adapter.
func NewSessionHandler(store *session.Store, defaults config.SessionConfig, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{store: store, defaults: defaults, logger: logger}
}

type createSessionRequest struct {
	ConcentrateFeed *float64 `json:"concentrate_feed"`
	NitrogenRate    *float64 `json:"nitrogen_rate"`
	FeedCostPerKg   *float64 `json:"feed_cost_per_kg"`
	Timeframe       string   `json:"timeframe"`
}

type parametersRequest struct {
	ConcentrateFeed float64 `json:"concentrate_feed"`
	NitrogenRate    float64 `json:"nitrogen_rate"`
}

type timeframeRequest struct {
	Timeframe string `json:"timeframe" binding:"required"`
}

type commandRequest struct {
	Text string `json:"text" binding:"required"`
}

// Create opens a new what-if session, filling omitted inputs from the
// configured defaults.
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params := models.FarmParameters{
		ConcentrateFeed: h.defaults.DefaultConcentrateFeed,
		NitrogenRate:    h.defaults.DefaultNitrogenRate,
	}
	if req.ConcentrateFeed != nil {
		params.ConcentrateFeed = *req.ConcentrateFeed
	}
	if req.NitrogenRate != nil {
		params.NitrogenRate = *req.NitrogenRate
	}

	feedCost := h.defaults.DefaultFeedCostPerKg
	if req.FeedCostPerKg != nil {
		feedCost = *req.FeedCostPerKg
	}

	timeframeRaw := req.Timeframe
	if timeframeRaw == "" {
		timeframeRaw = h.defaults.DefaultTimeframe
	}
	timeframe, err := models.ParseTimeframe(timeframeRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.store.Create(params, feedCost, timeframe)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, st)
}

// Get returns the full session state.
func (h *SessionHandler) Get(c *gin.Context) {
	st, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ApplyParameters replaces the session's farm parameters through the update
// protocol.
func (h *SessionHandler) ApplyParameters(c *gin.Context) {
	var req parametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid parameters payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	st, err := h.store.ApplyParameters(c.Param("id"), models.FarmParameters{
		ConcentrateFeed: req.ConcentrateFeed,
		NitrogenRate:    req.NitrogenRate,
	})
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// SetTimeframe switches the session's displayed timeframe.
func (h *SessionHandler) SetTimeframe(c *gin.Context) {
	var req timeframeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	timeframe, err := models.ParseTimeframe(req.Timeframe)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.store.SetTimeframe(c.Param("id"), timeframe)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// Command runs a free-text utterance against the session.
func (h *SessionHandler) Command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid command payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	st, err := h.store.HandleUtterance(c.Param("id"), req.Text)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	// The interpreter's reply is always the newest log entry.
	response := st.Messages[len(st.Messages)-1]
	c.JSON(http.StatusOK, gin.H{"response": response, "session": st})
}

// Trend returns the session's stored trend window.
func (h *SessionHandler) Trend(c *gin.Context) {
	st, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trend": st.Trend, "timeframe": st.Timeframe})
}

// Suggestions returns the current advisory list with an explicit empty
// marker so consumers never have to guess.
func (h *SessionHandler) Suggestions(c *gin.Context) {
	st, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	if len(st.Suggestions) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"suggestions": []models.Suggestion{},
			"note":        "no suggestions for the current parameters",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": st.Suggestions})
}

func (h *SessionHandler) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, session.ErrInvalidFeedCost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, metrics.ErrZeroYield), errors.Is(err, metrics.ErrNonFiniteResult):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("session operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
