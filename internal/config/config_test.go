package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.Lifecycle.DefaultGraceDays)
	assert.Equal(t, 60, cfg.Lifecycle.DefaultSuspendDays)
	assert.Equal(t, 90, cfg.Lifecycle.DefaultTerminateDays)
}

func TestValidateRejectsUnorderedWindows(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Lifecycle.DefaultGraceDays = 60
	cfg.Lifecycle.DefaultSuspendDays = 60
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Lifecycle.DefaultSuspendDays = 95
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeThreshold(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Recognition.MaterialityThreshold = decimal.NewFromInt(-1)
	assert.Error(t, cfg.Validate())
}
