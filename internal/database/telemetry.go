package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/stockai-go/internal/telemetry"
)

// TracedPool wraps a DatabasePool and records a client span per statement.
type TracedPool struct {
	next   DatabasePool
	tracer trace.Tracer
}

// NewTracedPool wraps next using the global tracer provider.
func NewTracedPool(next DatabasePool) *TracedPool {
	return &TracedPool{
		next:   next,
		tracer: telemetry.GetDatabaseTracer(),
	}
}

func (p *TracedPool) start(ctx context.Context, op, sql string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", compactSQL(sql)),
		),
	)
}

func finish(span trace.Span, err error) {
	telemetry.RecordError(span, err)
	span.End()
}

// Query executes a query that returns rows.
func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.start(ctx, "query", sql)
	rows, err := p.next.Query(ctx, sql, args...)
	finish(span, err)
	return rows, err
}

// QueryRow executes a query that is expected to return at most one row.
// Scan errors surface on the returned row, after the span has ended.
func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := p.start(ctx, "query_row", sql)
	row := p.next.QueryRow(ctx, sql, args...)
	span.End()
	return row
}

// Exec executes a statement without returning rows.
func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := p.start(ctx, "exec", sql)
	tag, err := p.next.Exec(ctx, sql, args...)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	finish(span, err)
	return tag, err
}

// compactSQL collapses whitespace so statements read on one line in traces.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
