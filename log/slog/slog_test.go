package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/hybridcache"
)

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("hidden", hybridcache.Fields{"key": "k"})
	assert.Zero(t, buf.Len())

	l.Info("distributed connection configured", hybridcache.Fields{"backend": hybridcache.BackendDistributed})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "hybridcache", rec["component"])
	assert.Equal(t, "distributed", rec["backend"])
}
