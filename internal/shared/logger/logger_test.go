package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netecho/internal/shared/types"
)

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "warn"}, &buf))

	Info().Msg("hidden")
	Warn().Str("peer", "127.0.0.1:1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "peer=127.0.0.1:1")
}

func TestInit_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "chatty"}, &buf))

	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
	Debug().Msg("not shown")
	Info().Msg("shown")
	assert.NotContains(t, buf.String(), "not shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "info"}, &buf))

	l := WithComponent("echo")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "component=echo")
}

func TestEvent_Fields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(types.LogConf{Level: "info"}, &buf))

	Info().Bool("match", true).Int("sent", 21).Msg("exchange")
	out := buf.String()
	assert.Contains(t, out, "match=true")
	assert.Contains(t, out, "sent=21")
}
