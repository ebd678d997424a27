package faults

import (
	"context"
	"log/slog"
	"time"
)

// DefaultManager returns a Manager preloaded with the stock policy
// table: parameter errors are ignored (they wait for operator
// correction), image errors are retried, camera errors trigger a
// restart action, and everything else raises an alert.
func DefaultManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := NewManager(logger)

	m.RegisterPolicy(string(KindParameter), Policy{
		Strategy:    StrategyIgnore,
		Description: "parameter error; wait for operator correction",
	})

	m.RegisterPolicy(string(KindImage), Policy{
		Strategy:    StrategyRetry,
		MaxAttempts: 3,
		Delay:       time.Second,
		Action: func(ctx context.Context, rec Record) bool {
			logger.Info("retrying after image error",
				slog.String("component", rec.Component),
				slog.String("message", rec.Message))
			return true
		},
		Description: "image error; retry the acquisition path",
	})

	m.RegisterPolicy(string(KindCamera), Policy{
		Strategy:    StrategyRestart,
		MaxAttempts: 2,
		Delay:       2 * time.Second,
		Action: func(ctx context.Context, rec Record) bool {
			logger.Warn("restarting camera path",
				slog.String("component", rec.Component),
				slog.String("message", rec.Message))
			return true
		},
		Description: "camera error; restart the device connection",
	})

	alert := func(ctx context.Context, rec Record) bool {
		LogError(logger, rec.Code, rec.Message, map[string]any{
			"component": rec.Component,
			"kind":      string(rec.Kind),
		})
		return true
	}

	m.RegisterPolicy(string(KindInternal), Policy{
		Strategy:    StrategyAlert,
		Action:      alert,
		Description: "internal error; alert the operator",
	})

	m.RegisterPolicy(DefaultPolicyKey, Policy{
		Strategy:    StrategyAlert,
		Action:      alert,
		Description: "fallback; alert the operator",
	})

	return m
}
