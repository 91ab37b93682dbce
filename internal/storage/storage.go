// ABOUTME: Store interfaces and history bounding for the advisor
// ABOUTME: Policy records are read by the core; transcripts are owned by the surface layer
package storage

import (
	"context"
	"errors"

	"github.com/coverly/advisor/internal/models"
	"github.com/coverly/advisor/internal/util"
)

// ErrRecordNotFound is returned by record mutations when the target record
// does not exist for the identity.
var ErrRecordNotFound = errors.New("storage: record not found")

// PolicyStore holds analyzed policy records per identity. The conversational
// core only reads; creation happens in the external document-analysis flow,
// and rename/delete are management operations on the CLI surface.
type PolicyStore interface {
	GetRecordsForIdentity(ctx context.Context, identity string) ([]models.PolicyRecord, error)
	SaveRecord(ctx context.Context, record models.PolicyRecord) error
	RenameRecord(ctx context.Context, identity, recordID, label string) error
	DeleteRecord(ctx context.Context, identity, recordID string) error
}

// TranscriptStore persists the append-only conversation transcript per
// conversation ID.
type TranscriptStore interface {
	GetTranscript(ctx context.Context, conversationID string) (models.Transcript, error)
	AppendMessages(ctx context.Context, conversationID string, messages ...models.Message) error
}

// TruncateHistory bounds a transcript before it is handed to the core.
// The message limit applies first, then the token limit, dropping oldest
// messages until the remainder fits.
func TruncateHistory(history models.Transcript, tokenLimit, messageLimit int) models.Transcript {
	if len(history) == 0 {
		return history
	}

	if messageLimit > 0 && len(history) > messageLimit {
		history = history[len(history)-messageLimit:]
	}

	if tokenLimit <= 0 {
		return history
	}

	totalTokens := 0
	for _, msg := range history {
		totalTokens += util.EstimateTokens(msg.Content)
	}
	for totalTokens > tokenLimit && len(history) > 0 {
		totalTokens -= util.EstimateTokens(history[0].Content)
		history = history[1:]
	}
	return history
}
