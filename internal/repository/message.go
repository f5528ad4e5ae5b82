package repository

import (
	"context"
	"fmt"

	"party-radar-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message to a conversation and reads back the committed
// timestamp so the caller broadcasts exactly what was stored.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, beacon_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		message.ID, message.BeaconID, message.UserID, message.Content,
	).Scan(&message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByBeacon returns the full conversation ordered ascending by
// (created_at, id). This is the authoritative read path.
func (r *MessageRepository) ListByBeacon(ctx context.Context, beaconID string) ([]*models.Message, error) {
	query := `
		SELECT id, beacon_id, user_id, content, created_at
		FROM messages
		WHERE beacon_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, beaconID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var m models.Message
		err := rows.Scan(&m.ID, &m.BeaconID, &m.UserID, &m.Content, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
