package logging

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OTLPConfig holds configuration for shipping lifecycle logs over OTLP/HTTP.
type OTLPConfig struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       string
}

// NewOTLPLogger returns a Logger whose records are exported over OTLP, plus
// the provider shutdown func that flushes pending batches.
func NewOTLPLogger(ctx context.Context, config OTLPConfig) (*Logger, func(context.Context) error, error) {
	opts, err := exporterOptions(config.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	handler := newOTLPHandler(provider.Logger(config.ServiceName), getSlogLevel(config.LogLevel))
	return NewLoggerFromHandler(handler), provider.Shutdown, nil
}

// otlpHandler adapts slog records to OpenTelemetry log records.
type otlpHandler struct {
	logger otellog.Logger
	level  slog.Level
	attrs  []otellog.KeyValue
}

// exporterOptions accepts either host:port or a full http(s) URL. Plain
// host:port endpoints are treated as insecure.
func exporterOptions(endpoint string) ([]otlploghttp.Option, error) {
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	if !strings.Contains(endpoint, "://") {
		return []otlploghttp.Option{
			otlploghttp.WithEndpoint(endpoint),
			otlploghttp.WithURLPath("/v1/logs"),
			otlploghttp.WithInsecure(),
		}, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid OTLP log endpoint %q", endpoint)
	}
	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(u.Host),
		otlploghttp.WithURLPath(strings.TrimRight(u.Path, "/") + "/v1/logs"),
	}
	if u.Scheme != "https" {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	return opts, nil
}

func newOTLPHandler(logger otellog.Logger, level slog.Level) *otlpHandler {
	return &otlpHandler{logger: logger, level: level}
}

func (h *otlpHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *otlpHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make([]otellog.KeyValue, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, otellog.String(a.Key, a.Value.String()))
		return true
	})

	var rec otellog.Record
	rec.SetTimestamp(record.Time)
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(severity(record.Level))
	rec.SetSeverityText(record.Level.String())
	rec.SetBody(otellog.StringValue(record.Message))
	rec.AddAttributes(attrs...)

	h.logger.Emit(ctx, rec)
	return nil
}

func (h *otlpHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &otlpHandler{logger: h.logger, level: h.level}
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, otellog.String(a.Key, a.Value.String()))
	}
	return next
}

// WithGroup flattens groups; lifecycle events never nest.
func (h *otlpHandler) WithGroup(string) slog.Handler {
	return h
}

func severity(level slog.Level) otellog.Severity {
	switch {
	case level >= slog.LevelError:
		return otellog.SeverityError
	case level >= slog.LevelWarn:
		return otellog.SeverityWarn
	case level >= slog.LevelInfo:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}
