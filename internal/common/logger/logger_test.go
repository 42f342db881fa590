package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"INFO":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := New("debug", "json")
	assert.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New("loud", "console")
	assert.Error(t, err)
}

func TestNewStructured_FallsBack(t *testing.T) {
	l := NewStructured("loud", "console")
	assert.NotNil(t, l)
	l.With(map[string]interface{}{"sessionId": "abc"}).WithError(errors.New("boom")).Info("ok", nil)
}

func TestNewZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"sessionId": "abc"})

	l.Debug("hidden", nil)
	l.Warn("Autocomplete query failed", map[string]interface{}{"query": "fe"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Autocomplete query failed", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"sessionId": "abc", "query": "fe"}, entries[0].ContextMap())

	assert.NotPanics(t, func() { NewZapAdapter(nil).Info("discarded", nil) })
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := NewTestLogger(t)
	assert.Equal(t, l, OrNop(l))
}
