package client

import (
	"go.uber.org/zap"
)

// newClientLogger creates a zap.Logger based on quiet mode preference.
// Quiet mode returns a production logger with Warn+ level and reduced noise.
// Non-quiet returns a production logger at info level.
func newClientLogger(quiet bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	if quiet {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.DisableCaller = true
	}
	return cfg.Build()
}
