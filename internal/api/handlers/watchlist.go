package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/middleware"
	"github.com/irfndi/stockai-go/internal/utils"
)

const maxWatchlistAdd = 50

// WatchlistStore persists per-user symbol sets.
type WatchlistStore interface {
	Add(ctx context.Context, userID string, symbols ...string) (int64, error)
	Remove(ctx context.Context, userID, symbol string) (bool, error)
	List(ctx context.Context, userID string) ([]string, error)
}

type WatchlistHandler struct {
	store  WatchlistStore
	logger *logrus.Logger
}

// WatchlistRequest is the body of POST /watchlist.
type WatchlistRequest struct {
	Symbols []string `json:"symbols"`
}

type WatchlistResponse struct {
	UserID  string   `json:"user_id"`
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

// NewWatchlistHandler creates a handler; a nil store answers 503.
func NewWatchlistHandler(store WatchlistStore, logger *logrus.Logger) *WatchlistHandler {
	return &WatchlistHandler{store: store, logger: logger}
}

func (h *WatchlistHandler) available(c *gin.Context) bool {
	if h.store == nil {
		writeError(c, http.StatusServiceUnavailable, ErrorResponse{Error: "watchlist storage is disabled"})
		return false
	}
	return true
}

func (h *WatchlistHandler) GetWatchlist(c *gin.Context) {
	if !h.available(c) {
		return
	}
	userID := middleware.UserID(c)

	symbols, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		h.storageError(c, err, userID, "Failed to list watchlist")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, WatchlistResponse{UserID: userID, Symbols: symbols, Count: len(symbols)})
}

func (h *WatchlistHandler) AddSymbols(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var req WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		badRequest(c, "at least one symbol is required")
		return
	}
	if len(req.Symbols) > maxWatchlistAdd {
		badRequest(c, "too many symbols in one request")
		return
	}

	symbols := make([]string, 0, len(req.Symbols))
	for _, raw := range req.Symbols {
		symbol, err := utils.NormalizeSymbol(raw)
		if err != nil {
			respondError(c, err, raw)
			return
		}
		symbols = append(symbols, symbol)
	}

	userID := middleware.UserID(c)
	added, err := h.store.Add(c.Request.Context(), userID, symbols...)
	if err != nil {
		h.storageError(c, err, userID, "Failed to add watchlist symbols")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"added":   added,
	}).Info("Watchlist updated")

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"added":  added,
	})
}

func (h *WatchlistHandler) RemoveSymbol(c *gin.Context) {
	if !h.available(c) {
		return
	}
	symbol, err := utils.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		respondError(c, err, c.Param("symbol"))
		return
	}

	userID := middleware.UserID(c)
	removed, err := h.store.Remove(c.Request.Context(), userID, symbol)
	if err != nil {
		h.storageError(c, err, userID, "Failed to remove watchlist symbol")
		return
	}
	if !removed {
		writeError(c, http.StatusNotFound, ErrorResponse{Error: "symbol not in watchlist", Symbol: symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"symbol": symbol,
	})
}

func (h *WatchlistHandler) storageError(c *gin.Context, err error, userID, message string) {
	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"error":   err.Error(),
	}).Error(message)
	middleware.RecordError(c, err, message)
	writeError(c, http.StatusInternalServerError, ErrorResponse{Error: "watchlist storage error"})
}
