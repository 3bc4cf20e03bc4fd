package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/attendance-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logging.Setup("warn", "PROD", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("path", "/login").Msg("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"path":"/login"`)
	require.Contains(t, out, `"message":"shown"`)
}

func TestSetupUnknownLevelDefaultsToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logging.Setup("chatty", "PROD", &buf)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
