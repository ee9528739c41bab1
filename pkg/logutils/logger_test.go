package logutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "policyview.log")

	l, closer, err := New("info", file)
	require.NoError(t, err)

	cl := Component(l, "lookup")
	cl.Info().Str("policy", "42").Msg("hello")
	l.Debug().Msg("filtered")
	closer()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"lookup"`)
	assert.Contains(t, string(data), `"policy":"42"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestNew_Appends(t *testing.T) {
	file := filepath.Join(t.TempDir(), "policyview.log")

	for _, msg := range []string{"first", "second"} {
		l, closer, err := New("debug", file)
		require.NoError(t, err)
		l.Info().Msg(msg)
		closer()
	}

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("loud", "")
	assert.Error(t, err)
}

func TestNew_EmptyFileDiscards(t *testing.T) {
	l, closer, err := New("debug", "")
	require.NoError(t, err)
	defer closer()
	l.Info().Msg("nowhere")
}
