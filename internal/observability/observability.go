package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PetoAdam/homenavi/weather-app/internal/payload"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// SetupLogging installs the default slog logger. format is "text" or "json".
func SetupLogging(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// SetupTracing registers a global tracer provider. Spans are exported over
// OTLP/HTTP when otlpEndpoint is set and dropped otherwise.
func SetupTracing(ctx context.Context, serviceName, otlpEndpoint string) (shutdown func(), tracer oteltrace.Tracer, err error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, nil, fmt.Errorf("create otel resource: %w", err)
	}

	var tp *trace.TracerProvider
	if otlpEndpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(otlpEndpoint))
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		tp = trace.NewTracerProvider(trace.WithBatcher(exp), trace.WithResource(res))
	} else {
		tp = trace.NewTracerProvider(trace.WithResource(res))
	}
	otel.SetTracerProvider(tp)

	shutdown = func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}
	return shutdown, otel.Tracer(serviceName), nil
}

type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	Selections       *prometheus.CounterVec
	Suggestions      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_app_provider_requests_total",
				Help: "Provider calls by provider, operation and outcome.",
			},
			[]string{"provider", "operation", "outcome"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weather_app_provider_request_duration_seconds",
				Help:    "Provider call latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		Selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_app_selections_total",
				Help: "City selections by result (applied, stale).",
			},
			[]string{"result"},
		),
		Suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weather_app_search_debounced_total",
				Help: "Debounced search fires by action (request, cleared, stale).",
			},
			[]string{"action"},
		),
	}
	reg.MustRegister(m.ProviderRequests, m.ProviderLatency, m.Selections, m.Suggestions)
	return m
}

// Instruments bundles the tracer and metrics handed to clients and workflows.
// The zero value and a nil *Instruments are both usable and record nothing.
type Instruments struct {
	Tracer  oteltrace.Tracer
	Metrics *Metrics
}

func (in *Instruments) tracer() oteltrace.Tracer {
	if in == nil || in.Tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return in.Tracer
}

// Start opens a span named name.
func (in *Instruments) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	return in.tracer().Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

// Track runs fn inside a provider span and records its outcome and latency.
func (in *Instruments) Track(ctx context.Context, provider, operation string, fn func(ctx context.Context) error) error {
	ctx, span := in.Start(ctx, provider+"."+operation,
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := payload.Outcome(err)

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if in != nil && in.Metrics != nil {
		in.Metrics.ProviderRequests.WithLabelValues(provider, operation, outcome).Inc()
		in.Metrics.ProviderLatency.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
	}
	return err
}

func (in *Instruments) CountSelection(result string) {
	if in == nil || in.Metrics == nil {
		return
	}
	in.Metrics.Selections.WithLabelValues(result).Inc()
}

func (in *Instruments) CountSuggestion(action string) {
	if in == nil || in.Metrics == nil {
		return
	}
	in.Metrics.Suggestions.WithLabelValues(action).Inc()
}

// WriteTextfile dumps every metric in g to path in the node-exporter
// textfile format. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
