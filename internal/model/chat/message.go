package chat

import "time"

// Role identifies who produced a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind tags how the message content should be rendered.
type Kind string

const (
	// KindText content is plain conversational text.
	KindText Kind = "text"
	// KindAudio content is a public URL to an uploaded audio file; the
	// frontend renders a player instead of text.
	KindAudio Kind = "audio"
)

// Message is one transcript entry. Messages are immutable once created and
// only ever appended to a transcript view.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Kind      Kind      `json:"kind,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
