package ai

import (
	"log/slog"
	"sync/atomic"
)

// debugLoggingEnabled gates per-tick debug logs (transitions, attacks).
// Checked before building log attributes so the hot path stays allocation free.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging enables or disables debug logging for the AI subsystem.
// Called once from main after the log level is parsed.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled returns true if debug logging is enabled.
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("expensive operation", "data", computeExpensiveData())
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}

// debugEvent logs an event when debug logging is on.
func debugEvent(e Event) {
	if !IsDebugEnabled() {
		return
	}
	switch e.Kind {
	case EventTransition:
		slog.Debug("AI behavior changed",
			"agent", e.Agent,
			"objectID", e.AgentID,
			"from", e.From,
			"to", e.To,
			"at", e.At)
	default:
		slog.Debug("AI event",
			"kind", e.Kind,
			"agent", e.Agent,
			"objectID", e.AgentID,
			"targetID", e.TargetID,
			"amount", e.Amount,
			"at", e.At)
	}
}
