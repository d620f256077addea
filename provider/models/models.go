package models

// Message is one turn handed to the model service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the structured request every call site builds instead of
// gluing prompt strings together. System, when non-empty, is prepended as a
// system message by the client.
type ChatRequest struct {
	System      string
	Messages    []Message
	Temperature float64
}
