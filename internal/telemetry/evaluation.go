package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vogtb/go-spreadsheet/packages/formula"
)

const evaluationScopeName = "github.com/vogtb/go-spreadsheet/formula"

// Instruments records formula evaluations: one span per evaluation plus
// counters for evaluations, error results and cell reads
type Instruments struct {
	tracer trace.Tracer
	evals  metric.Int64Counter
	errs   metric.Int64Counter
	reads  metric.Int64Counter
	dur    metric.Float64Histogram
}

// NewInstruments creates instruments from the given providers. nil providers
// fall back to the global ones installed by Init.
func NewInstruments(tp trace.TracerProvider, mp metric.MeterProvider) *Instruments {
	var tracer trace.Tracer
	if tp != nil {
		tracer = tp.Tracer(evaluationScopeName)
	} else {
		tracer = Tracer(evaluationScopeName)
	}
	var m metric.Meter
	if mp != nil {
		m = mp.Meter(evaluationScopeName)
	} else {
		m = Meter(evaluationScopeName)
	}

	evals, _ := m.Int64Counter("formula.evaluations",
		metric.WithDescription("Total formulas evaluated"),
	)
	errs, _ := m.Int64Counter("formula.evaluation.errors",
		metric.WithDescription("Evaluations whose result is an error value"),
	)
	reads, _ := m.Int64Counter("formula.cell.reads",
		metric.WithDescription("Cells read while evaluating"),
	)
	dur, _ := m.Float64Histogram("formula.evaluation.duration",
		metric.WithDescription("Evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return &Instruments{tracer: tracer, evals: evals, errs: errs, reads: reads, dur: dur}
}

// Evaluation is an in-flight evaluation started by StartEvaluation
type Evaluation struct {
	ctx   context.Context
	span  trace.Span
	start time.Time
	inst  *Instruments
}

// StartEvaluation opens a span for evaluating source
func (i *Instruments) StartEvaluation(ctx context.Context, source string) *Evaluation {
	ctx, span := i.tracer.Start(ctx, "formula.evaluate",
		trace.WithAttributes(attribute.String("formula.source", source)),
	)
	i.evals.Add(ctx, 1)
	return &Evaluation{ctx: ctx, span: span, start: time.Now(), inst: i}
}

// Context carries the evaluation span
func (e *Evaluation) Context() context.Context { return e.ctx }

// End records the result and closes the span. an error value marks the
// span as failed.
func (e *Evaluation) End(result formula.Value) {
	kind := "empty"
	if result != nil {
		kind = result.Kind().String()
	}
	attrs := metric.WithAttributes(attribute.String("formula.result.kind", kind))
	e.inst.dur.Record(e.ctx, float64(time.Since(e.start).Microseconds())/1000, attrs)

	e.span.SetAttributes(
		attribute.String("formula.result.kind", kind),
		attribute.String("formula.result", formula.ToText(result)),
	)
	if code, ok := formula.IsError(result); ok {
		e.span.SetStatus(codes.Error, code.String())
		e.inst.errs.Add(e.ctx, 1, metric.WithAttributes(attribute.String("formula.error", code.String())))
	}
	e.span.End()
}

// CellObserver counts cell reads, for workbook.WithCellObserver
func (i *Instruments) CellObserver() func(sheet, address string) {
	return func(sheet, address string) {
		i.reads.Add(context.Background(), 1, metric.WithAttributes(attribute.String("formula.sheet", sheet)))
	}
}
