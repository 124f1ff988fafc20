package domain

// Chat roles accepted in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatTurn is one entry of a conversation. The caller owns the history and
// resends it on every request; the relay only reads it.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ValidHistoryRole reports whether role may appear in caller-supplied history.
// The system role is reserved for the configured persona.
func ValidHistoryRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// EventKind discriminates relay events.
type EventKind int

const (
	// EventContent carries one incremental text fragment.
	EventContent EventKind = iota
	// EventDone is the normal terminal event.
	EventDone
	// EventError is the failure terminal event.
	EventError
)

// ChatEvent is a relay-to-client message. A stream is zero or more content
// events followed by exactly one terminal event (done or error).
type ChatEvent struct {
	Kind    EventKind
	Content string
	Err     error
}

// Terminal reports whether e closes the stream.
func (e ChatEvent) Terminal() bool { return e.Kind != EventContent }

// ChatEventPayload is the JSON body of one event-stream frame:
// {"content": "..."} | {"done": true} | {"error": "..."}.
type ChatEventPayload struct {
	Content *string `json:"content,omitempty"`
	Done    bool    `json:"done,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ContentEvent builds a content event.
func ContentEvent(s string) ChatEvent { return ChatEvent{Kind: EventContent, Content: s} }

// DoneEvent builds the normal terminal event.
func DoneEvent() ChatEvent { return ChatEvent{Kind: EventDone} }

// ErrorEvent builds the failure terminal event.
func ErrorEvent(err error) ChatEvent { return ChatEvent{Kind: EventError, Err: err} }
