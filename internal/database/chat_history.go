package database

import (
	"context"
	"fmt"

	"github.com/voiceboard/voiceboard/internal/models"
)

// HistoryLimit caps how many exchanges the assistant remembers.
const HistoryLimit = 50

// ChatHistoryRepository persists assistant conversation exchanges.
type ChatHistoryRepository struct {
	db *DB
}

// NewChatHistoryRepository creates a new chat history repository.
func NewChatHistoryRepository(db *DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

// Append stores one message/response exchange.
func (r *ChatHistoryRepository) Append(ctx context.Context, e *models.ChatExchange) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_history (id, message, response, created_at)
		VALUES ($1, $2, $3, $4)
	`, e.ID, e.Message, e.Response, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append chat exchange: %w", err)
	}
	return nil
}

// ListRecent returns the most recent exchanges in chronological order,
// capped at HistoryLimit.
func (r *ChatHistoryRepository) ListRecent(ctx context.Context) ([]models.ChatExchange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message, response, created_at
		FROM (
			SELECT id, message, response, created_at
			FROM chat_history
			ORDER BY created_at DESC
			LIMIT $1
		) recent
		ORDER BY created_at ASC
	`, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var exchanges []models.ChatExchange
	for rows.Next() {
		var e models.ChatExchange
		if err := rows.Scan(&e.ID, &e.Message, &e.Response, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat exchange: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}
	return exchanges, nil
}

// Clear removes all stored exchanges.
func (r *ChatHistoryRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_history`); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
