package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linebot_responder/src/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	err := InitLogger(model.LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestInitLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	err := InitLogger(model.LogConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "file",
		FilePath:   path,
		TimeFormat: "unix",
	})
	require.NoError(t, err)

	Info().Str("stage", "test").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stage":"test"`)
	assert.Contains(t, string(data), `"service":"linebot_responder"`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitLoggerStartupLineHasOneLevelKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	require.NoError(t, InitLogger(model.LogConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]

	assert.Equal(t, 1, strings.Count(first, `"level":`))
	assert.Contains(t, first, `"log_level":"info"`)
}
