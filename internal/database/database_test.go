package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/models"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool interface
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	result, err := m.mock.Exec(ctx, sql, args...)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", result.RowsAffected())), nil
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

func newMockRepository(t *testing.T) (*AnalysisRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewAnalysisRepository(NewMockPoolAdapter(mock)), mock
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Symbol:       "AAPL",
		CurrentPrice: 189.5,
		Decision: models.Decision{
			Action:     models.ActionBuy,
			Confidence: 0.9,
			Reason:     "RSI 25.0 indicates oversold condition",
		},
		Sentiment: models.Some(models.SentimentSummary{
			OverallSentiment: models.SentimentPositive,
			OverallScore:     0.4,
		}),
		PriceHistoryLength: 250,
		AnalyzedAt:         time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC),
	}
}

func TestAnalysisRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analysis_history").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_Record(t *testing.T) {
	repo, mock := newMockRepository(t)
	result := sampleResult()
	label := "POSITIVE"

	mock.ExpectExec("INSERT INTO analysis_history").
		WithArgs(pgxmock.AnyArg(), "AAPL", "BUY", 0.9, result.Decision.Reason, 189.5, &label, 250, result.AnalyzedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Record(context.Background(), result))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_RecordError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO analysis_history").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := repo.Record(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record analysis for AAPL")
}

func TestRecordFromResult(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	result := sampleResult()
	result.Sentiment = models.None[models.SentimentSummary]()
	result.AnalyzedAt = time.Time{}

	record := recordFromResult(result, now)
	assert.NotEmpty(t, record.ID)
	assert.Nil(t, record.SentimentLabel)
	assert.Equal(t, now, record.CreatedAt)
	assert.Equal(t, models.ActionBuy, record.Action)
}

func TestAnalysisRepository_ListBySymbol(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC)
	label := "NEGATIVE"

	columns := []string{"id", "symbol", "action", "confidence", "reason", "current_price",
		"sentiment_label", "price_history_length", "created_at"}
	rows := pgxmock.NewRows(columns).
		AddRow("id-2", "TSLA", "SELL", 0.8, "RSI 75.0 indicates overbought condition", 250.1, &label, 120, created).
		AddRow("id-1", "TSLA", "HOLD", 0.5, "RSI 50.0 is in neutral zone", 240.0, (*string)(nil), 119, created.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM analysis_history").
		WithArgs("TSLA", MaxHistoryLimit).
		WillReturnRows(rows)

	records, err := repo.ListBySymbol(context.Background(), "TSLA", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.ActionSell, records[0].Action)
	require.NotNil(t, records[0].SentimentLabel)
	assert.Equal(t, "NEGATIVE", *records[0].SentimentLabel)
	assert.Equal(t, models.ActionHold, records[1].Action)
	assert.Nil(t, records[1].SentimentLabel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_ListBySymbolQueryError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM analysis_history").
		WithArgs("TSLA", 10).
		WillReturnError(errors.New("relation does not exist"))

	_, err := repo.ListBySymbol(context.Background(), "TSLA", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query analysis history")
}

func setupWatchlistStore(t *testing.T) (*WatchlistStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWatchlistStore(client), s
}

func TestWatchlistStore_AddListRemove(t *testing.T) {
	store, _ := setupWatchlistStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, "user-1", "MSFT", "AAPL", "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	symbols, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)

	removed, err := store.Remove(ctx, "user-1", "AAPL")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Remove(ctx, "user-1", "AAPL")
	require.NoError(t, err)
	assert.False(t, removed)

	empty, err := store.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWatchlistStore_AllSymbols(t *testing.T) {
	store, s := setupWatchlistStore(t)
	ctx := context.Background()

	all, err := store.AllSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = store.Add(ctx, "user-1", "AAPL", "MSFT")
	require.NoError(t, err)
	_, err = store.Add(ctx, "user-2", "MSFT", "TSLA")
	require.NoError(t, err)
	require.NoError(t, s.Set("prices:AAPL:1y", "[]"))

	all, err = store.AllSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, all)
}

func TestNewRedisConnection(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewRedisConnection(context.Background(), config.RedisConfig{
		Host: s.Host(),
		Port: mustPort(t, s.Port()),
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	port := mustPort(t, s.Port())
	s.Close()

	_, err := NewRedisConnection(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func mustPort(t *testing.T, raw string) int {
	t.Helper()
	var port int
	_, err := fmt.Sscanf(raw, "%d", &port)
	require.NoError(t, err)
	return port
}
