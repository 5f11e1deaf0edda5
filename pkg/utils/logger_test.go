package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode enables debug entries", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("debug logger should enable debug level")
		}
		_ = logger.Sync()
	})

	t.Run("default mode logs warnings only", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Error("info should be disabled")
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Error("warn should be enabled")
		}
		_ = logger.Sync()
	})
}
