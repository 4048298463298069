package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/middleware"
	"github.com/irfndi/stockai-go/internal/models"
	"github.com/irfndi/stockai-go/internal/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryStore reads persisted analysis summaries.
type HistoryStore interface {
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]models.AnalysisRecord, error)
}

type HistoryHandler struct {
	store  HistoryStore
	logger *logrus.Logger
}

type HistoryResponse struct {
	Symbol  string                  `json:"symbol"`
	Records []models.AnalysisRecord `json:"records"`
	Count   int                     `json:"count"`
}

// NewHistoryHandler creates a handler; a nil store answers 503.
func NewHistoryHandler(store HistoryStore, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

// GetHistory handles GET /history/:symbol, newest first.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if h.store == nil {
		writeError(c, http.StatusServiceUnavailable, ErrorResponse{Error: "analysis history is disabled"})
		return
	}
	symbol, err := utils.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		respondError(c, err, c.Param("symbol"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		badRequest(c, "limit must be between 1 and "+strconv.Itoa(maxHistoryLimit))
		return
	}

	records, err := h.store.ListBySymbol(c.Request.Context(), symbol, limit)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"error":  err.Error(),
		}).Error("Failed to load analysis history")
		middleware.RecordError(c, err, "history query failed")
		writeError(c, http.StatusInternalServerError, ErrorResponse{Error: "failed to load history", Symbol: symbol})
		return
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}

	c.JSON(http.StatusOK, HistoryResponse{Symbol: symbol, Records: records, Count: len(records)})
}
