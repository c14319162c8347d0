package observability

import (
	"context"
	"fmt"
	"time"

	"skillsnap/internal/ai"
	"skillsnap/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricResumeUploaded    = "resume_uploaded"
	MetricResumeAnalyzed    = "resume_analyzed"
	MetricAuditFallback     = "audit_fallback"
	MetricDerivativeCreated = "derivative_created"
	MetricVersionsCompared  = "versions_compared"
	MetricQualityCheck      = "quality_check"
	MetricScoreExplained    = "score_explained"
	MetricInterviewPrepared = "interview_prepared"
)

// Metrics holds all custom metrics for SkillSnap
type Metrics struct {
	// Provider operation metrics
	ProviderDuration metric.Float64Histogram
	ProviderRequests metric.Int64Counter
	ProviderErrors   metric.Int64Counter
	ProviderTokens   metric.Int64Histogram

	// Local scoring
	ScoringDuration metric.Float64Histogram

	// Business metrics
	business map[string]metric.Int64Counter

	// Certificate metrics
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

var _ ai.Observer = (*Metrics)(nil)

// NewMetrics creates every custom instrument on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{business: make(map[string]metric.Int64Counter)}

	for _, create := range []func(metric.Meter) error{
		m.createProviderMetrics,
		m.createBusinessMetrics,
		m.createInfrastructureMetrics,
	} {
		if err := create(meter); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NopMetrics returns metrics backed by a no-op meter, for callers without an observability manager.
func NopMetrics() *Metrics {
	m, err := NewMetrics(metricnoop.NewMeterProvider().Meter("skillsnap"))
	if err != nil {
		// no-op instruments never fail to register
		panic(err)
	}
	return m
}

// createProviderMetrics creates generative provider metrics
func (m *Metrics) createProviderMetrics(meter metric.Meter) error {
	var err error

	m.ProviderDuration, err = meter.Float64Histogram(
		"skillsnap_provider_duration_seconds",
		metric.WithDescription("Time spent in generative provider calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create provider duration metric: %w", err)
	}

	m.ProviderRequests, err = meter.Int64Counter(
		"skillsnap_provider_requests_total",
		metric.WithDescription("Total number of generative provider calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create provider request count metric: %w", err)
	}

	m.ProviderErrors, err = meter.Int64Counter(
		"skillsnap_provider_errors_total",
		metric.WithDescription("Total number of failed generative provider calls"),
	)
	if err != nil {
		return fmt.Errorf("failed to create provider error count metric: %w", err)
	}

	m.ProviderTokens, err = meter.Int64Histogram(
		"skillsnap_provider_token_usage",
		metric.WithDescription("Token usage for provider calls (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create provider token usage metric: %w", err)
	}

	m.ScoringDuration, err = meter.Float64Histogram(
		"skillsnap_scoring_duration_seconds",
		metric.WithDescription("Time spent scoring a resume locally"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create scoring duration metric: %w", err)
	}

	return nil
}

// createBusinessMetrics creates business-related metrics
func (m *Metrics) createBusinessMetrics(meter metric.Meter) error {
	counters := []struct{ key, name, description string }{
		{MetricResumeUploaded, "skillsnap_resumes_uploaded_total", "Total number of resumes uploaded"},
		{MetricResumeAnalyzed, "skillsnap_resumes_analyzed_total", "Total number of resume analyses"},
		{MetricAuditFallback, "skillsnap_audits_fallback_total", "General audits answered by local rules instead of the provider"},
		{MetricDerivativeCreated, "skillsnap_derivatives_created_total", "Total number of optimized derivatives stored"},
		{MetricVersionsCompared, "skillsnap_versions_compared_total", "Total number of version comparisons"},
		{MetricQualityCheck, "skillsnap_quality_checks_total", "Total number of quality checks"},
		{MetricScoreExplained, "skillsnap_score_explanations_total", "Total number of score explanations"},
		{MetricInterviewPrepared, "skillsnap_interview_preps_total", "Total number of interview question sets generated"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return fmt.Errorf("failed to create %s metric: %w", c.key, err)
		}
		m.business[c.key] = counter
	}
	return nil
}

// createInfrastructureMetrics creates certificate and rate limiting metrics
func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.CertReloadCount, err = meter.Int64Counter(
		"skillsnap_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}

	m.CertExpiryTime, err = meter.Float64Gauge(
		"skillsnap_cert_expiry_seconds",
		metric.WithDescription("Seconds until certificate expiry"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate expiry time metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"skillsnap_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// ObserveProviderCall implements ai.Observer
func (m *Metrics) ObserveProviderCall(ctx context.Context, call ai.CallRecord) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", call.Operation),
		attribute.String("model", call.Model),
		attribute.Bool("success", call.Err == nil),
	}

	m.ProviderDuration.Record(ctx, call.Duration.Seconds(), metric.WithAttributes(attrs...))
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if call.Err != nil {
		m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(append(attrs,
			attribute.String("error_type", string(errors.TypeOf(call.Err))))...))
	}

	if call.Usage == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", call.Usage.InputTokens},
		{"output", call.Usage.OutputTokens},
		{"total", call.Usage.TotalTokens},
	} {
		m.ProviderTokens.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", call.Operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordScoring records one local scoring run
func (m *Metrics) RecordScoring(ctx context.Context, mode string, duration time.Duration, err error) {
	m.ScoringDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", err == nil),
	))
}

// RecordBusinessMetric records business-specific metrics. Unknown metric types are ignored.
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	counter, ok := m.business[metricType]
	if !ok {
		return
	}
	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitHit records a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limiterType string) {
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter_type", limiterType)))
}

// RecordCertReload records a certificate reload attempt and the new expiry
func (m *Metrics) RecordCertReload(ctx context.Context, success bool, notAfter time.Time) {
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success && !notAfter.IsZero() {
		m.CertExpiryTime.Record(ctx, time.Until(notAfter).Seconds())
	}
}
