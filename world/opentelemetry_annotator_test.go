// Copyright © 2025 The typls authors

package world_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/typls/typls/typstest"
	"github.com/typls/typls/world"
)

func newTestExporter(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func TestNewOpenTelemetryAnnotator(t *testing.T) {
	exporter := newTestExporter(t)

	p := typstest.NewProject(t, map[string]string{
		"main.typ": "= Title\n",
	})
	a := world.NewOpenTelemetryAnnotator(context.Background())
	require.NoError(t, a.Enable())
	exec := world.NewExecutor(p.Ws, a)
	t.Cleanup(exec.Close)

	res := exec.CompileWait(context.Background(), p.URI("main.typ"))
	require.NoError(t, res.Err)
	assert.NoError(t, a.Complete())

	spans := exporter.GetSpans()
	require.GreaterOrEqual(t, len(spans), 1, "Expected at least one span")
	assert.Equal(t, "compile", spans[0].Name)
}

func TestNewOpenTelemetryAnnotatorSkip(t *testing.T) {
	exporter := newTestExporter(t)

	a := world.NewOpenTelemetryAnnotator(context.Background(),
		world.WithSkipPhases("compile"))
	require.NoError(t, a.Enable())
	end := a.Start("compile", "file:///proj/main.typ")
	end()
	assert.NoError(t, a.Complete())

	assert.Empty(t, exporter.GetSpans(), "Expected skipped phase to emit no spans")
}

func TestOpenTelemetryAnnotatorEnableTwice(t *testing.T) {
	a := world.NewOpenTelemetryAnnotator(context.Background())
	require.NoError(t, a.Enable())
	assert.Error(t, a.Enable())
}

func TestOpenTelemetryAnnotatorNilContext(t *testing.T) {
	//nolint:staticcheck
	a := world.NewOpenTelemetryAnnotator(nil)
	assert.Error(t, a.Enable())
}
