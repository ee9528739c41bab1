package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, map[string]string{"policy": "42"}))
	assert.Equal(t, "{\"policy\":\"42\"}\n", buf.String())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestWrite_Unmarshalable(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestMarshalError(t *testing.T) {
	assert.Equal(t, `{"message":"lookup failed","data":{"status":404}}`,
		MarshalError("lookup failed", map[string]any{"status": 404}))

	out := MarshalError("bad", map[string]any{"ch": make(chan int)})
	assert.Contains(t, out, `"json_error"`)
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteError(&buf, "oops", nil))
	assert.Equal(t, "{\"message\":\"oops\"}\n", buf.String())
}

type request struct {
	Policy string `json:"policy"`
}

func TestFileReader(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "in.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"policy":"1"},{"policy":"2"}]`), 0o644))

		fr := &FileReader[[]request]{fileFlagValue: path}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, []request{{"1"}, {"2"}}, got)
	})

	t.Run("from stdin", func(t *testing.T) {
		fr := &FileReader[request]{stdin: strings.NewReader(`{"policy":"7"}`)}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "7", got.Policy)
	})

	t.Run("missing file", func(t *testing.T) {
		fr := &FileReader[request]{fileFlagValue: filepath.Join(t.TempDir(), "nope.json")}
		_, err := fr.Read()
		assert.ErrorContains(t, err, "open file")
	})

	t.Run("bad json", func(t *testing.T) {
		fr := &FileReader[request]{stdin: strings.NewReader(`{`)}
		_, err := fr.Read()
		assert.ErrorContains(t, err, "decode JSON")
	})

	t.Run("flag definition", func(t *testing.T) {
		fr := &FileReader[request]{}
		assert.Equal(t, "file", fr.Flag().Name)
	})
}
