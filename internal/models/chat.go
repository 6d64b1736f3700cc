package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatExchange is one completed user/assistant exchange, persisted in
// insertion order as the conversation history.
type ChatExchange struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
