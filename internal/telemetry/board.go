package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const boardScopeName = "github.com/ripi-dev/ripi/board"

// BoardInstruments holds the spans and metrics recorded by board operations.
// Every operation gets a span and is counted in ripi.board.* metrics; index
// rebuilds are counted separately so a command's scan cost is visible.
type BoardInstruments struct {
	tracer   trace.Tracer
	ops      metric.Int64Counter
	dur      metric.Float64Histogram
	errs     metric.Int64Counter
	rebuilds metric.Int64Counter
	issues   metric.Int64Gauge
}

// NewBoardInstruments creates the board instruments against the global
// providers. With telemetry disabled those are no-ops.
func NewBoardInstruments() *BoardInstruments {
	m := Meter(boardScopeName)
	ops, _ := m.Int64Counter("ripi.board.operations",
		metric.WithDescription("Total board operations executed"),
	)
	dur, _ := m.Float64Histogram("ripi.board.operation.duration",
		metric.WithDescription("Board operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("ripi.board.errors",
		metric.WithDescription("Total board operation errors"),
	)
	rebuilds, _ := m.Int64Counter("ripi.index.rebuilds",
		metric.WithDescription("Full scans of the stage directories"),
	)
	issues, _ := m.Int64Gauge("ripi.issue.count",
		metric.WithDescription("Issues found by the latest index rebuild"),
	)
	return &BoardInstruments{
		tracer:   Tracer(boardScopeName),
		ops:      ops,
		dur:      dur,
		errs:     errs,
		rebuilds: rebuilds,
		issues:   issues,
	}
}

// Op starts a span and counts the named board operation.
func (b *BoardInstruments) Op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("board.operation", name)}, attrs...)
	ctx, span := b.tracer.Start(ctx, "board."+name, trace.WithAttributes(all...))
	b.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// Done ends the span, records duration and optional error.
func (b *BoardInstruments) Done(ctx context.Context, span trace.Span, start time.Time, err error) {
	ms := float64(time.Since(start).Milliseconds())
	b.dur.Record(ctx, ms)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.errs.Add(ctx, 1)
	}
	span.End()
}

// Rebuilt records one index rebuild that found n issues.
func (b *BoardInstruments) Rebuilt(ctx context.Context, n int) {
	b.rebuilds.Add(ctx, 1)
	b.issues.Record(ctx, int64(n))
}
