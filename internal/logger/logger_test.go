package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: FormatJSON}, "zipdemo", &buf)

	l.Debug("dropped")
	l.WithComponent("engine").Info("committed", map[string]interface{}{FieldPair: "[a0, b0]"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "committed", entry["message"])
	require.Equal(t, "engine", entry[FieldComponent])
	require.Equal(t, "zipdemo", entry[FieldService])
	require.Equal(t, "[a0, b0]", entry[FieldPair])
}

func TestOpenFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "zipdemo.log")
	l, closeFn, err := Open(Config{Level: "debug", Output: path}, "zipdemo")
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"hello"`)
}

func TestDefaultsAndNop(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	require.Equal(t, "info", c.Level)
	require.Equal(t, FormatJSON, c.Format)
	require.Equal(t, "stderr", c.Output)

	Nop().WithError(os.ErrNotExist).Error("ignored")
}

func TestWithFieldsTagsEveryEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info"}, "zipdemo", &buf).WithFields(map[string]interface{}{FieldSession: "s1"})
	l.WithComponent("engine").Info("reset")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "s1", entry[FieldSession])
	require.Equal(t, "engine", entry[FieldComponent])
	require.Equal(t, "zipdemo", entry[FieldService])
}
