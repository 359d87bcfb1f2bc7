package types

// Envelope is the uniform response shape: every endpoint answers with
// success, an optional data payload, and a human-readable message.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}
