package database

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wellknownalpha/bloom-pos/pkg/database"

// QueryTracer implements pgx.QueryTracer. It opens a client span for every
// query and logs queries slower than the configured threshold.
type QueryTracer struct {
	tracer        trace.Tracer
	slowThreshold time.Duration
	logger        *slog.Logger
}

// NewQueryTracer creates a tracer. A zero threshold disables slow query logging.
func NewQueryTracer(slowThreshold time.Duration, logger *slog.Logger) *QueryTracer {
	return &QueryTracer{
		tracer:        otel.Tracer(tracerName),
		slowThreshold: slowThreshold,
		logger:        logger,
	}
}

type queryTraceKey struct{}

type queryTrace struct {
	start     time.Time
	operation string
	sql       string
	span      trace.Span
}

// TraceQueryStart implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	op := operationName(data.SQL)
	ctx, span := t.tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
			attribute.String("db.statement", data.SQL),
		),
	)
	return context.WithValue(ctx, queryTraceKey{}, &queryTrace{
		start:     time.Now(),
		operation: op,
		sql:       data.SQL,
		span:      span,
	})
}

// TraceQueryEnd implements pgx.QueryTracer.
func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qt, ok := ctx.Value(queryTraceKey{}).(*queryTrace)
	if !ok {
		return
	}

	if data.Err != nil {
		qt.span.RecordError(data.Err)
		qt.span.SetStatus(codes.Error, data.Err.Error())
	} else {
		qt.span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}
	qt.span.End()

	if t.slowThreshold <= 0 || t.logger == nil {
		return
	}
	if elapsed := time.Since(qt.start); elapsed >= t.slowThreshold {
		attrs := []any{
			slog.String("operation", qt.operation),
			slog.String("statement", qt.sql),
			slog.Duration("duration", elapsed),
		}
		if data.Err != nil {
			attrs = append(attrs, slog.String("error", data.Err.Error()))
		}
		t.logger.WarnContext(ctx, "slow query detected", attrs...)
	}
}

// operationName returns the leading SQL keyword, upper-cased.
func operationName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "QUERY"
	}
	return strings.ToUpper(fields[0])
}
