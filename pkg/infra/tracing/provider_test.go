package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	options "github.com/kart-io/coursemind/pkg/options/tracing"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *options.Options)
		wantErr bool
	}{
		{"disabled ignores everything", func(o *options.Options) { o.ExporterType = "bogus" }, false},
		{"enabled grpc", func(o *options.Options) { o.Enabled = true }, false},
		{"missing endpoint", func(o *options.Options) { o.Enabled = true; o.Endpoint = "" }, true},
		{"stdout needs no endpoint", func(o *options.Options) {
			o.Enabled = true
			o.ExporterType = options.ExporterStdout
			o.Endpoint = ""
		}, false},
		{"bad exporter", func(o *options.Options) { o.Enabled = true; o.ExporterType = "zipkin" }, true},
		{"bad ratio", func(o *options.Options) { o.Enabled = true; o.SamplerRatio = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := options.NewOptions()
			tt.mutate(o)
			assert.Equal(t, tt.wantErr, len(o.Validate()) > 0)
		})
	}
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), options.NewOptions(), "test")
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer("x"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderNoop(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ServiceName = "coursemind-test"
	opts.ExporterType = options.ExporterNoop

	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	p, err := NewProvider(context.Background(), opts, "test")
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := p.Tracer("t").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderInvalid(t *testing.T) {
	opts := options.NewOptions()
	opts.Enabled = true
	opts.ExporterType = "zipkin"
	_, err := NewProvider(context.Background(), opts, "test")
	assert.Error(t, err)
}

func TestSpanHelpers(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx, span := StartSpan(context.Background(), "rag.retrieve")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	RecordError(ctx, nil)
	RecordError(ctx, errors.New("milvus down"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "rag.retrieve", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
}
