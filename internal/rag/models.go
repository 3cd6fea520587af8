package rag

// Role of a chat message sent to the completion backend.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Query
// Payload of POST /chat. Input is a pointer so a missing field can be told
// apart from an empty question.
type Query struct {
	Input *string `json:"input"`
}

// RetrievedDocument
// One nearest-neighbour hit from the vector index.
type RetrievedDocument struct {
	Text     string            `json:"text"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Prompt
// Context is every retrieved text, in rank order.
type Prompt struct {
	SystemInstruction string
	Context           string
	Question          string
}

// Message is one entry of the message sequence sent to the LLM.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationParams are fixed per process and forwarded on every completion.
type GenerationParams struct {
	Temperature float32
	MaxTokens   int
}

// Answer is the text produced by the completion backend, returned verbatim.
type Answer struct {
	Text string `json:"text"`
}

// ChatResponse
// Response body of POST /chat.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// ImageRequest
// Payload of POST /generate-image.
type ImageRequest struct {
	Prompt *string `json:"prompt"`
}

// ImageResponse
// Response body of POST /generate-image.
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}
