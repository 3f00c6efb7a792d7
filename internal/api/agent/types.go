package agent

// ChatRequest is the body of POST /api/agent/chat/stream.
type ChatRequest struct {
	Message        string    `json:"message"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         string    `json:"user_id"`
	Location       *Location `json:"location,omitempty"`
	Media          *Media    `json:"media,omitempty"`
}

// Location pins a turn to delivery coordinates so restaurant and dish
// searches resolve against the right area.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Media carries an attachment alongside the message, base64-encoded.
// Refund photo verification and medical document analysis both ride on
// this field.
type Media struct {
	Type     string         `json:"type"`
	Data     string         `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
