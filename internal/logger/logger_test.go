package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPicksHandlerByEnv(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production").Info("hello", "order_id", "o1")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "o1", rec["order_id"])

	buf.Reset()
	New(&buf, "local").Debug("hello", "order_id", "o1")
	assert.True(t, strings.Contains(buf.String(), "order_id=o1"), buf.String())
}

func TestFromCtx(t *testing.T) {
	assert.Same(t, L, FromCtx(context.Background()))

	var buf bytes.Buffer
	log := New(&buf, "local").With("request_id", "r1")
	ctx := Inject(context.Background(), log)
	FromCtx(ctx).Info("x")
	assert.Contains(t, buf.String(), "request_id=r1")
}
