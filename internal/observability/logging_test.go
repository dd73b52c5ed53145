package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/civic-kit/complaint-service/internal/config"
)

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "not-a-level", Service: "complaint-service"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a usable logger")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("bad level should fall back to info, not silence the logger")
	}
}
