package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/logging"
	"github.com/irfndi/stockai-go/internal/models"
)

// SymbolLister supplies the symbols a scan should cover.
type SymbolLister interface {
	AllSymbols(ctx context.Context) ([]string, error)
}

// SignalNotifier delivers actionable results of a scan.
type SignalNotifier interface {
	NotifySignals(ctx context.Context, results []*models.AnalysisResult) error
}

// ScanSummary reports one watchlist scan.
type ScanSummary struct {
	StartedAt time.Time
	Symbols   int
	Failures  int
	Signals   []*models.AnalysisResult
}

// WatchlistScannerConfig wires a WatchlistScanner.
type WatchlistScannerConfig struct {
	Schedule         string
	StaticSymbols    []string
	IncludeSentiment bool
	MinConfidence    float64
	ScanTimeout      time.Duration
}

// WatchlistScanner periodically analyzes every watched symbol.
type WatchlistScanner struct {
	analysis *AnalysisService
	lister   SymbolLister
	notifier SignalNotifier
	logger   *logrus.Logger
	events   *logging.Logger
	config   WatchlistScannerConfig

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	last    *ScanSummary
}

// NewWatchlistScanner creates a scanner. lister and notifier may be nil.
func NewWatchlistScanner(analysis *AnalysisService, lister SymbolLister, notifier SignalNotifier,
	logger *logrus.Logger, events *logging.Logger, config WatchlistScannerConfig) *WatchlistScanner {
	if config.Schedule == "" {
		config.Schedule = "@every 30m"
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 5 * time.Minute
	}
	return &WatchlistScanner{
		analysis: analysis,
		lister:   lister,
		notifier: notifier,
		logger:   logger,
		events:   events,
		config:   config,
		cron:     cron.New(),
	}
}

// Start registers the scan on the cron schedule and starts the scheduler.
func (w *WatchlistScanner) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register watchlist scan %q: %w", w.config.Schedule, err)
	}
	w.cron.Start()
	w.logger.WithField("schedule", w.config.Schedule).Info("Watchlist scanner started")
	return nil
}

// Stop stops the scheduler and waits for a running scan to finish.
func (w *WatchlistScanner) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("Watchlist scanner stopped")
}

// LastScan returns the most recent completed scan, if any.
func (w *WatchlistScanner) LastScan() *ScanSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// RunOnce scans all symbols now. Overlapping runs are skipped.
func (w *WatchlistScanner) RunOnce(ctx context.Context) *ScanSummary {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn("Previous watchlist scan still running, skipping")
		return nil
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, w.config.ScanTimeout)
	defer cancel()

	summary := &ScanSummary{StartedAt: time.Now()}
	symbols := w.symbols(ctx)
	summary.Symbols = len(symbols)

	if len(symbols) > 0 {
		entries := w.analysis.AnalyzeBatch(ctx, symbols, AnalysisRequest{IncludeSentiment: w.config.IncludeSentiment})
		for _, e := range entries {
			if e.Err != nil {
				summary.Failures++
				w.logger.WithFields(logrus.Fields{
					"symbol": e.Symbol,
					"error":  e.Err.Error(),
				}).Warn("Watchlist analysis failed")
				continue
			}
			if e.Result.Decision.Action != models.ActionHold && e.Result.Decision.Confidence >= w.config.MinConfidence {
				summary.Signals = append(summary.Signals, e.Result)
			}
		}
	}

	if w.notifier != nil && len(summary.Signals) > 0 {
		if err := w.notifier.NotifySignals(ctx, summary.Signals); err != nil {
			w.logger.WithError(err).Warn("Failed to deliver watchlist signals")
		}
	}

	if w.events != nil {
		w.events.LogScan(summary.Symbols, summary.Failures, time.Since(summary.StartedAt))
	}

	w.mu.Lock()
	w.last = summary
	w.mu.Unlock()

	return summary
}

// symbols merges configured symbols with the stored watchlists, deduplicated.
func (w *WatchlistScanner) symbols(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(list []string) {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}

	add(w.config.StaticSymbols)
	if w.lister != nil {
		stored, err := w.lister.AllSymbols(ctx)
		if err != nil {
			w.logger.WithError(err).Warn("Failed to load stored watchlists")
		}
		add(stored)
	}
	return out
}
