package pkg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConfigureLevel(t *testing.T) {
	defer Configure(LogConfig{})

	var buf bytes.Buffer
	Configure(LogConfig{Level: "info", Output: &buf})

	log := Logger()
	log.Debug().Msg("filtered")
	log.Info().Msg("visible")

	assert.NotContains(t, buf.String(), "filtered")
	assert.Contains(t, buf.String(), "visible")
}

func TestConfigureNilOutput(t *testing.T) {
	Configure(LogConfig{})
	assert.Equal(t, zerolog.Disabled, Logger().GetLevel())
}

func TestComponentLogger(t *testing.T) {
	defer Configure(LogConfig{})

	var buf bytes.Buffer
	Configure(LogConfig{Level: "debug", Output: &buf})

	log := ComponentLogger(ComponentQueue)
	log.Debug().Msg("routed")

	line := buf.String()
	assert.Contains(t, line, `"component":"queue"`)
	assert.Contains(t, line, "routed")
}

func TestSetLogger(t *testing.T) {
	defer Configure(LogConfig{})

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := Logger()
	log.Info().Str("fourcc", "YUYV").Msg("negotiated")

	assert.True(t, strings.Contains(buf.String(), "YUYV"))
}
