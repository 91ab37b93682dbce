// ABOUTME: Message and Transcript types for conversation state
// ABOUTME: The transcript is the only durable cross-turn state the core reads
package models

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single immutable entry in a conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is an ordered sequence of messages, oldest first.
// It grows monotonically for the life of a conversation.
type Transcript []Message

// Clone returns a copy of the transcript so callers can append without
// mutating the original backing array.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Tail returns the most recent n messages, or the whole transcript if it
// holds fewer than n.
func (t Transcript) Tail(n int) Transcript {
	if n <= 0 || len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}
