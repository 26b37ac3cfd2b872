package logger_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/yyyoichi/svdlab/internal/logger"
)

func TestInitWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	test := []struct {
		level string
		debug bool
		exp   zerolog.Level
	}{
		{"warn", false, zerolog.WarnLevel},
		{"DEBUG", false, zerolog.DebugLevel},
		{"error", true, zerolog.DebugLevel},
		{"", false, zerolog.InfoLevel},
		{"loud", false, zerolog.InfoLevel},
	}
	for _, tt := range test {
		var buf bytes.Buffer
		logger.InitWriter(&buf, tt.level, tt.debug)
		assert.Equal(t, tt.exp, zerolog.GlobalLevel(), tt.level)
	}

	var buf bytes.Buffer
	logger.InitWriter(&buf, "info", false)
	log.Debug().Msg("hidden")
	log.Info().Int("rank", 3).Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "rank=")
}
