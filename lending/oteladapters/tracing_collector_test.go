package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
)

func newTracing() (*oteladapters.TracingCollector, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), recorder
}

func attributeValue(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, recorder := newTracing()

	// act
	ctx, span := collector.StartSpan(context.Background(), "lending.create_loan", map[string]string{"student_id": "1001"})
	span.AddAttribute("loan_id", "7")
	collector.FinishSpan(span, "success", map[string]string{"duration_ms": "1.25"})

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "lending.create_loan", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	for key, want := range map[string]string{"student_id": "1001", "loan_id": "7", "duration_ms": "1.25"} {
		got, ok := attributeValue(ended[0], key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status string
		code   codes.Code
	}{
		{status: "success", code: codes.Ok},
		{status: "error", code: codes.Error},
		{status: "rolled_back", code: codes.Error},
		{status: "concurrency_conflict", code: codes.Error},
		{status: "canceled", code: codes.Error},
		{status: "rejected", code: codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			collector, recorder := newTracing()
			_, span := collector.StartSpan(context.Background(), "op", nil)

			// act
			collector.FinishSpan(span, tc.status, nil)

			// assert
			ended := recorder.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, tc.code, ended[0].Status().Code)
		})
	}
}

func Test_TracingCollector_UnknownStatusBecomesAttribute(t *testing.T) {
	// arrange
	collector, recorder := newTracing()
	_, span := collector.StartSpan(context.Background(), "op", nil)

	// act
	collector.FinishSpan(span, "rejected", nil)

	// assert
	got, ok := attributeValue(recorder.Ended()[0], "status")
	assert.True(t, ok)
	assert.Equal(t, "rejected", got)
}

func Test_TracingCollector_PropagatesParent(t *testing.T) {
	// arrange
	collector, recorder := newTracing()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "parent", nil)
	_, child := collector.StartSpan(ctx, "child", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
}

type foreignSpan struct{}

func (foreignSpan) SetStatus(string)            {}
func (foreignSpan) AddAttribute(string, string) {}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	collector, recorder := newTracing()

	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpan{}, "success", map[string]string{"k": "v"})
	})
	assert.Empty(t, recorder.Ended())
}
