package logging

import (
	"QuorumKV/internal/platform/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.Config{DeploymentMode: "devel", LogLevel: "debug"})
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(config.Config{})
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
