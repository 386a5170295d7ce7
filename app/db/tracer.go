package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carelinnk/carelinnk-api/app/observability/metrics"
)

type queryStartKey struct{}

// queryMetricsTracer records query duration and error counts for every
// statement issued through the pool.
type queryMetricsTracer struct{}

var _ pgx.QueryTracer = queryMetricsTracer{}

func (queryMetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (queryMetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	m := metrics.Get()
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	if data.Err != nil && !errors.Is(data.Err, context.Canceled) {
		m.DbQueryErrorsTotal.Add(ctx, 1)
	}
}
