package services

import (
	"context"
	"log/slog"
)

// Side effect names, used as log attributes and metric labels
const (
	EffectActivity     = "activity"
	EffectNotification = "notification"
	EffectReceipt      = "receipt"
	EffectEmail        = "email"
	EffectRealtime     = "realtime"
)

// SideEffects runs best-effort work that follows a committed primary
// mutation. Errors are logged and counted, never returned.
type SideEffects struct {
	logger *slog.Logger
}

// NewSideEffects creates a runner logging through logger (slog.Default when nil)
func NewSideEffects(logger *slog.Logger) *SideEffects {
	if logger == nil {
		logger = slog.Default()
	}
	return &SideEffects{logger: logger}
}

// Run executes fn and swallows its error. It reports whether fn succeeded.
func (s *SideEffects) Run(ctx context.Context, effect string, fn func(ctx context.Context) error) bool {
	err := fn(ctx)
	if err == nil {
		return true
	}

	sideEffectFailures.WithLabelValues(effect).Inc()
	s.logger.WarnContext(ctx, "side effect failed",
		"effect", effect,
		"error", err)
	return false
}
