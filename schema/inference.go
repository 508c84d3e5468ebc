// Package schema defines the typed request, response, and stream-chunk
// payloads exchanged with downstream services over the bus. The gateway never
// interprets these fields; they exist so that route registrations are checked
// at build time and so wire encoding is structural, not stringly typed.
//
// Every type carries parallel json and cbor tags: json for the HTTP surface,
// cbor for the bus. All fields use omitempty so HTTP responses stay compact.
package schema

// ChatMessage is one turn of a conversation sent to the inference service.
type ChatMessage struct {
	Role    string `json:"role,omitempty" cbor:"role,omitempty"`
	Content string `json:"content,omitempty" cbor:"content,omitempty"`
}

// ChatRequest asks the inference service for a streamed chat completion.
type ChatRequest struct {
	Model       string        `json:"model,omitempty" cbor:"model,omitempty"`
	Messages    []ChatMessage `json:"messages,omitempty" cbor:"messages,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty" cbor:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty" cbor:"temperature,omitempty"`
}

// ChatChunk is one streamed fragment of a chat completion.
type ChatChunk struct {
	Text         string `json:"text,omitempty" cbor:"text,omitempty"`
	Index        int    `json:"index,omitempty" cbor:"index,omitempty"`
	FinishReason string `json:"finish_reason,omitempty" cbor:"finish_reason,omitempty"`
}

// EmbedRequest asks the inference service for embeddings.
type EmbedRequest struct {
	Model string   `json:"model,omitempty" cbor:"model,omitempty"`
	Input []string `json:"input,omitempty" cbor:"input,omitempty"`
}

// EmbedResponse carries the computed embeddings.
type EmbedResponse struct {
	Model      string      `json:"model,omitempty" cbor:"model,omitempty"`
	Embeddings [][]float64 `json:"embeddings,omitempty" cbor:"embeddings,omitempty"`
}
