// Package oracle provides LLM client implementations for the interview
// pipeline. The oracle is a collaborator, not the core: every caller
// has a deterministic fallback for when it is unreachable or returns
// garbage.
package oracle

import (
	"context"
	"errors"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// ErrMalformed is returned when an oracle response cannot be decoded
// into the expected JSON shape. Callers branch on it to fall back to
// deterministic behavior.
var ErrMalformed = errors.New("malformed oracle response")

// Client is the abstract oracle. Complete sends one system+user prompt
// pair and returns the raw text completion. Implementations must
// honor ctx cancellation and deadlines.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)

	// Ping checks whether the oracle is reachable and credentialed.
	Ping(ctx context.Context) error
}
