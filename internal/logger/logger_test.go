package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/privcap/internal/logger"
)

func TestNewWithWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer

	log := logger.NewWithWriter(logger.Config{Level: "warn"}, &buf)
	log.Info().Msg("dropped")
	log.Warn().Str("transfer_id", "t-1").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "t-1", entry["transfer_id"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer

	log := logger.NewWithWriter(logger.Config{Level: "loud"}, &buf)
	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}
