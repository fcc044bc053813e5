// Package observability installs the process-wide slog logger and the
// OpenTelemetry log pipeline behind it.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/florianilch/taskconsole"

// Exporters a log pipeline can ship to. ExporterNone keeps logs local.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Options configures Instrument.
type Options struct {
	Level  slog.Level
	Format string // text or json

	Exporter string
	// Endpoint is the collector URL for the otlp exporters.
	Endpoint string

	// Writer receives local log output; defaults to os.Stderr.
	Writer io.Writer
}

// Instrument sets the default slog logger and, if an exporter is configured,
// a global OpenTelemetry logger provider records are mirrored into.
// The returned func flushes and stops the pipeline.
func Instrument(ctx context.Context, opts Options) (func(context.Context) error, error) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	var local slog.Handler
	switch opts.Format {
	case "", "text":
		local = slog.NewTextHandler(w, handlerOpts)
	case "json":
		local = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if opts.Exporter == "" || opts.Exporter == ExporterNone {
		slog.SetDefault(slog.New(local))
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, opts.Exporter, opts.Endpoint, w)
	if err != nil {
		return nil, fmt.Errorf("creating %s log exporter: %w", opts.Exporter, err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(
			sdklog.NewBatchProcessor(exporter),
			severity(opts.Level),
		)),
	)
	global.SetLoggerProvider(provider)

	bridge := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
	slog.SetDefault(slog.New(&teeHandler{handlers: []slog.Handler{local, bridge}}))

	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, kind, endpoint string, w io.Writer) (sdklog.Exporter, error) {
	switch kind {
	case ExporterStdout:
		return stdoutlog.New(stdoutlog.WithWriter(w))
	case ExporterOTLPHTTP:
		var opts []otlploghttp.Option
		if endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpointURL(endpoint))
		}
		return otlploghttp.New(ctx, opts...)
	case ExporterOTLPGRPC:
		var opts []otlploggrpc.Option
		if endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpointURL(endpoint))
		}
		return otlploggrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", kind)
	}
}

// severity maps a slog level onto the minimum severity the pipeline keeps.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level < slog.LevelInfo:
		return minsev.SeverityDebug
	case level < slog.LevelWarn:
		return minsev.SeverityInfo
	case level < slog.LevelError:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
