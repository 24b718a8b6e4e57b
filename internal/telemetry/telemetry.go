// Package telemetry wraps the OpenTelemetry metrics API with the
// small set of counters/histograms the refinement engine emits.
// With no SDK registered (config.TracingEnabled == false, the
// default) otel's global meter provider is a no-op, so every call
// here is safe to make unconditionally from session/scoring code.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/thebtf/refineloop"

// Metrics bundles the instruments the engine reports against, built
// once at process start and threaded through wherever a submission
// is scored or a session starts/ends.
type Metrics struct {
	candidatesSubmitted metric.Int64Counter
	sessionsStarted     metric.Int64Counter
	sessionsHalted      metric.Int64Counter
	candidateScore      metric.Float64Histogram
	applyDuration       metric.Float64Histogram
}

// New builds a Metrics bundle against the global meter provider. It
// never returns an error to callers: instrument-creation failures are
// logged-and-ignored by recording into a nil instrument, matched by a
// nil check at each call site.
func New() *Metrics {
	meter := otel.Meter(meterName)

	candidatesSubmitted, _ := meter.Int64Counter(
		"refineloop.candidates.submitted",
		metric.WithDescription("Number of candidates submitted across all sessions"),
	)
	sessionsStarted, _ := meter.Int64Counter(
		"refineloop.sessions.started",
		metric.WithDescription("Number of refinement sessions started"),
	)
	sessionsHalted, _ := meter.Int64Counter(
		"refineloop.sessions.halted",
		metric.WithDescription("Number of refinement sessions that reached a halt condition"),
	)
	candidateScore, _ := meter.Float64Histogram(
		"refineloop.candidate.score",
		metric.WithDescription("Composite score of each submitted candidate"),
	)
	applyDuration, _ := meter.Float64Histogram(
		"refineloop.candidate.apply_duration_seconds",
		metric.WithDescription("Wall-clock time spent applying and evaluating a candidate"),
		metric.WithUnit("s"),
	)

	return &Metrics{
		candidatesSubmitted: candidatesSubmitted,
		sessionsStarted:     sessionsStarted,
		sessionsHalted:      sessionsHalted,
		candidateScore:      candidateScore,
		applyDuration:       applyDuration,
	}
}

// RecordSessionStarted increments the session-started counter.
func (m *Metrics) RecordSessionStarted(ctx context.Context, mode string) {
	if m == nil || m.sessionsStarted == nil {
		return
	}
	m.sessionsStarted.Add(ctx, 1, metric.WithAttributes(attrMode(mode)))
}

// RecordCandidateSubmitted increments the candidate counter and
// records the resulting score and apply duration.
func (m *Metrics) RecordCandidateSubmitted(ctx context.Context, candidateMode string, score, durationSeconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attrCandidateMode(candidateMode))
	if m.candidatesSubmitted != nil {
		m.candidatesSubmitted.Add(ctx, 1, attrs)
	}
	if m.candidateScore != nil {
		m.candidateScore.Record(ctx, score, attrs)
	}
	if m.applyDuration != nil {
		m.applyDuration.Record(ctx, durationSeconds, attrs)
	}
}

// RecordSessionHalted increments the halt counter, tagged with why
// the session stopped.
func (m *Metrics) RecordSessionHalted(ctx context.Context, reason string) {
	if m == nil || m.sessionsHalted == nil {
		return
	}
	m.sessionsHalted.Add(ctx, 1, metric.WithAttributes(attrReason(reason)))
}
