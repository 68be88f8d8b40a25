package driving

import (
	"context"

	"github.com/custodia-labs/galaxy-core/internal/core/domain"
)

// AnswerService runs grounded tutoring turns and owns the conversation session
type AnswerService interface {
	// Ask appends the user turn, produces the assistant turn and blocks until it
	// settles. The returned turn is a frozen copy.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.ConversationTurn, error)

	// Phase returns the phase of the turn in flight, or idle
	Phase() domain.TurnPhase

	// Conversation returns copies of all turns in the current session
	Conversation(ctx context.Context) []*domain.ConversationTurn

	// Restore replaces the session with one rebuilt from an archived entry
	Restore(ctx context.Context, entryID string) ([]*domain.ConversationTurn, error)

	// Reset cancels any in-flight turn and starts a fresh session
	Reset(ctx context.Context)
}
