package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/annel0/voxel-stream/internal/logging"
)

// TelemetryOptions - параметры экспорта трасс
type TelemetryOptions struct {
	ServiceName string
	Endpoint    string  // пусто - значение по умолчанию экспортера (localhost:4318)
	Insecure    bool    // HTTP без TLS
	SampleRatio float64 // 0 или 1 - трассируется всё
}

// Sampler возвращает сэмплер по доле SampleRatio, уважающий решение родителя
func (o TelemetryOptions) Sampler() sdktrace.Sampler {
	if o.SampleRatio <= 0 || o.SampleRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.SampleRatio))
}

func (o TelemetryOptions) exporterOptions() []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if o.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(o.Endpoint))
	}
	if o.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Спаны генерации и рассылки чанков уходят через него.
// Возвращённую функцию нужно вызвать при завершении процесса.
func InitTelemetry(ctx context.Context, opts TelemetryOptions) (func(context.Context) error, error) {
	exp, err := otlptracehttp.New(ctx, opts.exporterOptions()...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания OTLP экспортера: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", opts.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка описания ресурса: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(opts.Sampler()),
	)
	otel.SetTracerProvider(tp)

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	logging.Info("📡 OpenTelemetry: OTLP → %s, service=%s", endpoint, opts.ServiceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
