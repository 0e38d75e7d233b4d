package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "spans.json")
	require.NoError(t, Init("bpmn", "0.0.1", fileName))

	ctx, span := StartSpan(context.Background(), "engine.start", "INTERNAL")
	span.WithAttributes(map[string]string{"workflow.id": "w1", "empty": ""})
	current, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	assert.NotNil(t, current)
	_, child := StartSpan(ctx, "job.execute", "CONSUMER")
	EndSpan(child, errors.New("failed"))
	EndSpan(span, nil)

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "engine.start")
	assert.Contains(t, string(data), "job.execute")
}

func TestSpanFromContext(t *testing.T) {
	_, ok := SpanFromContext(context.Background())
	assert.False(t, ok)
	EndSpan(nil, nil)
}
