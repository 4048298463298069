package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/irfndi/stockai-go/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const analysisSchema = `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id UUID PRIMARY KEY,
		symbol VARCHAR(16) NOT NULL,
		action VARCHAR(4) NOT NULL,
		confidence NUMERIC(4, 2) NOT NULL,
		reason TEXT NOT NULL,
		current_price NUMERIC(18, 4) NOT NULL,
		sentiment_label VARCHAR(8),
		price_history_length INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_history_symbol_created
		ON analysis_history (symbol, created_at DESC);
`

// MaxHistoryLimit caps how many records ListBySymbol returns.
const MaxHistoryLimit = 100

// AnalysisRepository persists analysis outcomes to PostgreSQL.
type AnalysisRepository struct {
	pool DatabasePool
	now  func() time.Time
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(pool DatabasePool) *AnalysisRepository {
	return &AnalysisRepository{
		pool: pool,
		now:  time.Now,
	}
}

// EnsureSchema creates the history table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, analysisSchema); err != nil {
		return fmt.Errorf("failed to create analysis schema: %w", err)
	}
	return nil
}

// Record implements services.AnalysisRecorder.
func (r *AnalysisRepository) Record(ctx context.Context, result *models.AnalysisResult) error {
	record := recordFromResult(result, r.now())

	query := `
		INSERT INTO analysis_history
			(id, symbol, action, confidence, reason, current_price, sentiment_label, price_history_length, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Symbol,
		string(record.Action),
		record.Confidence,
		record.Reason,
		record.CurrentPrice,
		record.SentimentLabel,
		record.PriceHistoryLength,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis for %s: %w", result.Symbol, err)
	}
	return nil
}

// ListBySymbol returns the most recent records for symbol, newest first.
func (r *AnalysisRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	query := `
		SELECT id, symbol, action, confidence, reason, current_price, sentiment_label, price_history_length, created_at
		FROM analysis_history
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	records := make([]models.AnalysisRecord, 0)
	for rows.Next() {
		var (
			record models.AnalysisRecord
			action string
		)
		if err := rows.Scan(
			&record.ID,
			&record.Symbol,
			&action,
			&record.Confidence,
			&record.Reason,
			&record.CurrentPrice,
			&record.SentimentLabel,
			&record.PriceHistoryLength,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		record.Action = models.Action(action)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis history: %w", err)
	}

	return records, nil
}

func recordFromResult(result *models.AnalysisResult, now time.Time) models.AnalysisRecord {
	record := models.AnalysisRecord{
		ID:                 uuid.NewString(),
		Symbol:             result.Symbol,
		Action:             result.Decision.Action,
		Confidence:         result.Decision.Confidence,
		Reason:             result.Decision.Reason,
		CurrentPrice:       result.CurrentPrice,
		PriceHistoryLength: result.PriceHistoryLength,
		CreatedAt:          result.AnalyzedAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if summary, ok := result.Sentiment.Get(); ok {
		label := string(summary.OverallSentiment)
		record.SentimentLabel = &label
	}
	return record
}
