package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synapse/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetupWritesToFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "synapse.log")
	closer, err := Setup(config.LoggingConfig{Level: "debug", File: path}, false)
	require.NoError(t, err)

	log.Debug().Str("conversation_id", "c1").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"conversation_id":"c1"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestSetupDefaultFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	closer, err := Setup(config.LoggingConfig{Level: "info"}, false)
	require.NoError(t, err)
	defer closer.Close()

	assert.FileExists(t, filepath.Join(state, "synapse", "synapse.log"))
}

func TestSetupRejectsBadLevel(t *testing.T) {
	_, err := Setup(config.LoggingConfig{Level: "chatty"}, true)
	assert.Error(t, err)
}
