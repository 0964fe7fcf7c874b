package dbpool

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/jsonbstore/docdb/internal/dbpool"
	meterName  = tracerName
)

var (
	queryCount, _    = otel.Meter(meterName).Int64Counter("docdb.query.count", metric.WithDescription("Total number of SQL statements executed"), metric.WithUnit("{query}"))
	queryDuration, _ = otel.Meter(meterName).Float64Histogram("docdb.query.duration", metric.WithDescription("Statement execution duration"), metric.WithUnit("ms"), metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000))
	queryErrors, _   = otel.Meter(meterName).Int64Counter("docdb.query.errors", metric.WithDescription("Total number of SQL statement errors"), metric.WithUnit("{error}"))
)

// tracingExecer wraps an execer so every ExecContext/QueryxContext/
// QueryRowxContext call opens a span and records duration/error metrics,
// mirroring the instrument wrapper the wider ecosystem reaches for around
// database calls. Embedding the inner execer satisfies the rest of
// sqlx.ExtContext without restating every binder/query method.
type tracingExecer struct {
	execer
	tracer trace.Tracer
}

func newTracingExecer(inner execer) tracingExecer {
	return tracingExecer{execer: inner, tracer: otel.Tracer(tracerName)}
}

func recordMetrics(ctx context.Context, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	queryCount.Add(ctx, 1, attrs)
	queryDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		queryErrors.Add(ctx, 1, attrs)
	}
}

func (t tracingExecer) startSpan(ctx context.Context, name, statement string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("db.statement", statement))
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t tracingExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	ctx, span := t.startSpan(ctx, "docdb.execute", query)
	res, err := t.execer.ExecContext(ctx, query, args...)
	endSpan(span, err)
	recordMetrics(ctx, "execute", start, err)
	return res, err
}

func (t tracingExecer) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	start := time.Now()
	ctx, span := t.startSpan(ctx, "docdb.query", query)
	rows, err := t.execer.QueryxContext(ctx, query, args...)
	endSpan(span, err)
	recordMetrics(ctx, "query", start, err)
	return rows, err
}

func (t tracingExecer) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	start := time.Now()
	ctx, span := t.startSpan(ctx, "docdb.query_row", query)
	row := t.execer.QueryRowxContext(ctx, query, args...)
	endSpan(span, row.Err())
	recordMetrics(ctx, "query_row", start, row.Err())
	return row
}
