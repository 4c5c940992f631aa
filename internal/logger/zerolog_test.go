package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Info("BorderRepair", "region completed", map[string]interface{}{"region": 3})

	out := buf.String()
	assert.Contains(t, out, `"component":"BorderRepair"`)
	assert.Contains(t, out, `"region":3`)
	assert.Contains(t, out, `"message":"region completed"`)
}

func TestZerologAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("Pipeline", "hidden", nil)
	log.Info("Pipeline", "hidden", nil)
	require.Zero(t, buf.Len())

	log.Error("Pipeline", errors.New("boom"), nil)
	assert.Contains(t, buf.String(), "boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("x", "y", map[string]interface{}{"k": 1})
	})
}
