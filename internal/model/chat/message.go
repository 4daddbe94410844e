package chat

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn in the advisory conversation. Field names match the
// persisted snapshot format, so stored history round-trips as-is.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"` // optional attachment, data URI
	Timestamp int64  `json:"timestamp"`       // milliseconds since epoch
}

// Snapshot is the whole conversation state the page renders from.
type Snapshot struct {
	Messages  []Message `json:"messages"`
	IsLoading bool      `json:"isLoading"`
	Error     string    `json:"error,omitempty"`
}
