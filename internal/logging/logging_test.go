package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{
		component:       "test",
		consoleLogger:   log.New(&buf, "", 0),
		minConsoleLevel: level,
		minFileLevel:    ERROR + 1,
	}, &buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":        INFO,
		"trace":   TRACE,
		"Debug":   DEBUG,
		" INFO ":  INFO,
		"warning": WARN,
		"error":   ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	l, buf := bufferLogger(WARN)

	l.Info("скрыто")
	l.Warn("чанк %d", 7)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [test] чанк 7")
	assert.Contains(t, out, "[ERROR] [test] ошибка")
}

func TestLogger_NilAndNop(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("ничего") })

	nop := NewNopLogger()
	assert.NotPanics(t, func() { nop.Error("ничего") })
	assert.NoError(t, nop.Close())
}

func TestLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(dir, ERROR)
	t.Cleanup(func() { Configure("", INFO) })

	l, err := NewLogger("chunks")
	require.NoError(t, err)
	l.Debug("в файл")
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "chunks_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [chunks] в файл")
}

func TestLoggerManager_Levels(t *testing.T) {
	Configure("", INFO)
	lm := NewLoggerManager()

	server, err := lm.GetLogger("server")
	require.NoError(t, err)
	again, err := lm.GetLogger("server")
	require.NoError(t, err)
	assert.Same(t, server, again)
	assert.Equal(t, INFO, server.minConsoleLevel)

	require.NoError(t, lm.SetLevels(map[string]string{"server": "debug", "mesh": "error"}))
	assert.Equal(t, DEBUG, server.minConsoleLevel, "уровень меняется у существующего логгера")

	mesh := lm.MustGetLogger("mesh")
	assert.Equal(t, ERROR, mesh.minConsoleLevel, "уровень применяется при создании")

	assert.Equal(t, []string{"mesh", "server"}, lm.Components())

	assert.Error(t, lm.SetLevels(map[string]string{"server": "loud"}))
	assert.Equal(t, DEBUG, server.minConsoleLevel)

	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.Components())
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))

	dump := HexDump(bytes.Repeat([]byte{0xAB}, 1000))
	lines := strings.Split(strings.TrimSpace(dump), "\n")
	assert.Len(t, lines, 16, "дамп ограничен 256 байтами")
}
