// Copyright © 2025 The typls authors

package world_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"

	"github.com/typls/typls/typstest"
	"github.com/typls/typls/world"
)

// collectExporter records exported span names.
type collectExporter struct {
	mu    sync.Mutex
	names []string
}

func (e *collectExporter) ExportSpan(sd *trace.SpanData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, sd.Name)
}

func (e *collectExporter) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.names...)
}

func TestNewOpenCensusAnnotator(t *testing.T) {
	// Sample at 100% for the purposes of this test.
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	exporter := new(collectExporter)
	trace.RegisterExporter(exporter)
	t.Cleanup(func() { trace.UnregisterExporter(exporter) })

	p := typstest.NewProject(t, map[string]string{
		"main.typ": "= Title\n",
	})
	a := world.NewOpenCensusAnnotator(context.Background())
	require.NoError(t, a.Enable())
	exec := world.NewExecutor(p.Ws, a)
	t.Cleanup(exec.Close)

	res := exec.CompileWait(context.Background(), p.URI("main.typ"))
	require.NoError(t, res.Err)
	assert.NoError(t, a.Complete())

	assert.Contains(t, exporter.Names(), "compile")
}

func TestOpenCensusAnnotatorNilContext(t *testing.T) {
	//nolint:staticcheck
	a := world.NewOpenCensusAnnotator(nil)
	assert.Error(t, a.Enable())
}
