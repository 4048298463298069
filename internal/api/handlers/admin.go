package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/cache"
	"github.com/irfndi/stockai-go/internal/services"
	"github.com/irfndi/stockai-go/internal/utils"
)

const (
	defaultTokenTTL = 24 * time.Hour
	maxTokenTTL     = 30 * 24 * time.Hour
)

// MarketCache exposes cache counters and per-symbol invalidation.
type MarketCache interface {
	Stats() cache.CacheStats
	Invalidate(ctx context.Context, symbol string) error
}

// Scanner runs watchlist scans on demand.
type Scanner interface {
	RunOnce(ctx context.Context) *services.ScanSummary
	LastScan() *services.ScanSummary
}

// TokenIssuer mints user tokens for the JWT-protected routes.
type TokenIssuer interface {
	GenerateToken(userID string, duration time.Duration) (string, error)
}

type AdminHandler struct {
	cache   MarketCache
	scanner Scanner
	tokens  TokenIssuer
	logger  *logrus.Logger
}

// TokenRequest is the body of POST /admin/tokens.
type TokenRequest struct {
	UserID   string `json:"user_id"`
	TTLHours int    `json:"ttl_hours"`
}

// ScanResponse summarizes a watchlist scan.
type ScanResponse struct {
	StartedAt string             `json:"started_at"`
	Symbols   int                `json:"symbols"`
	Failures  int                `json:"failures"`
	Signals   []AnalysisResponse `json:"signals"`
}

// NewAdminHandler creates a handler. Any collaborator may be nil, in which
// case its routes answer 503.
func NewAdminHandler(marketCache MarketCache, scanner Scanner, tokens TokenIssuer, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{cache: marketCache, scanner: scanner, tokens: tokens, logger: logger}
}

func unavailable(c *gin.Context, feature string) {
	writeError(c, http.StatusServiceUnavailable, ErrorResponse{Error: feature + " is disabled"})
}

func (h *AdminHandler) GetCacheStats(c *gin.Context) {
	if h.cache == nil {
		unavailable(c, "cache")
		return
	}
	stats := h.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"errors":   stats.Errors,
		"hit_rate_percent": round(stats.HitRate(), 2),
	})
}

func (h *AdminHandler) InvalidateSymbol(c *gin.Context) {
	if h.cache == nil {
		unavailable(c, "cache")
		return
	}
	symbol, err := utils.NormalizeSymbol(c.Param("symbol"))
	if err != nil {
		respondError(c, err, c.Param("symbol"))
		return
	}
	if err := h.cache.Invalidate(c.Request.Context(), symbol); err != nil {
		h.logger.WithFields(logrus.Fields{
			"symbol": symbol,
			"error":  err.Error(),
		}).Error("Failed to invalidate cache")
		writeError(c, http.StatusInternalServerError, ErrorResponse{Error: "cache invalidation failed", Symbol: symbol})
		return
	}

	h.logger.WithField("symbol", symbol).Info("Cache invalidated")
	c.JSON(http.StatusOK, gin.H{"status": "success", "symbol": symbol})
}

// TriggerScan runs a watchlist scan synchronously.
func (h *AdminHandler) TriggerScan(c *gin.Context) {
	if h.scanner == nil {
		unavailable(c, "watchlist scanner")
		return
	}
	summary := h.scanner.RunOnce(c.Request.Context())
	if summary == nil {
		writeError(c, http.StatusConflict, ErrorResponse{Error: "a scan is already running"})
		return
	}
	c.JSON(http.StatusOK, newScanResponse(summary))
}

func (h *AdminHandler) GetLastScan(c *gin.Context) {
	if h.scanner == nil {
		unavailable(c, "watchlist scanner")
		return
	}
	summary := h.scanner.LastScan()
	if summary == nil {
		writeError(c, http.StatusNotFound, ErrorResponse{Error: "no scan has completed yet"})
		return
	}
	c.JSON(http.StatusOK, newScanResponse(summary))
}

func (h *AdminHandler) IssueToken(c *gin.Context) {
	if h.tokens == nil {
		unavailable(c, "token issuance")
		return
	}
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	ttl := defaultTokenTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	if ttl > maxTokenTTL {
		badRequest(c, "ttl_hours exceeds 720")
		return
	}

	token, err := h.tokens.GenerateToken(userID, ttl)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate token")
		writeError(c, http.StatusInternalServerError, ErrorResponse{Error: "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"user_id":    userID,
		"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
	})
}

func newScanResponse(s *services.ScanSummary) ScanResponse {
	signals := make([]AnalysisResponse, len(s.Signals))
	for i, r := range s.Signals {
		signals[i] = newAnalysisResponse(r)
	}
	return ScanResponse{
		StartedAt: s.StartedAt.UTC().Format(time.RFC3339),
		Symbols:   s.Symbols,
		Failures:  s.Failures,
		Signals:   signals,
	}
}
