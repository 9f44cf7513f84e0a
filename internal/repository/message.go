package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository interface {
	// Create stores the message together with its seen-by rows.
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// GetByIDs silently drops ids that do not exist.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Message, error)
	List(ctx context.Context, q domain.MessageQuery) ([]*domain.Message, int, error)
	// ListRecent returns newest first; limit 0 means no cap.
	ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]*domain.Message, error)
	// ListBefore returns the chat's messages created strictly before t.
	ListBefore(ctx context.Context, chatID uuid.UUID, t time.Time) ([]*domain.Message, error)
	UpdateContent(ctx context.Context, message *domain.Message) error
	CountNotSeen(ctx context.Context, chatID, userID uuid.UUID) (int, error)
	// AddSeen inserts userID into the seen-by set of every message, all or
	// nothing. Existing entries are left untouched.
	AddSeen(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) error
	GetSeenBy(ctx context.Context, messageID uuid.UUID) ([]*domain.User, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

const messageSelect = `
	SELECT m.id, m.chat_id, m.author_id, m.content, m.created_at, m.updated_at,
	       COALESCE(array_agg(s.user_id::text) FILTER (WHERE s.user_id IS NOT NULL), '{}')
	FROM messages m
	LEFT JOIN message_seen s ON s.message_id = m.id
`

func scanMessage(row scanner) (*domain.Message, error) {
	message := &domain.Message{}
	var seen []string
	err := row.Scan(
		&message.ID, &message.ChatID, &message.AuthorID, &message.Content,
		&message.CreatedAt, &message.UpdatedAt, &seen,
	)
	if err != nil {
		return nil, err
	}
	message.SeenBy, err = parseUUIDs(seen)
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO messages (id, chat_id, author_id, content, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			message.ID, message.ChatID, message.AuthorID, message.Content, message.CreatedAt, message.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertSeen(ctx, tx, message.SeenBy, []uuid.UUID{message.ID})
	})
	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	message, err := scanMessage(r.db.QueryRow(ctx, messageSelect+` WHERE m.id = $1 GROUP BY m.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", id, apperrors.ErrNotFound)
		}
		r.log.Error("Failed to get message", "error", err)
		return nil, err
	}
	return message, nil
}

func (r *messageRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Message, error) {
	if len(ids) == 0 {
		return []*domain.Message{}, nil
	}
	query := messageSelect + ` WHERE m.id = ANY($1::uuid[]) GROUP BY m.id ORDER BY m.created_at, m.id`
	return r.queryMessages(ctx, query, uuidStrings(ids))
}

var messageOrderColumns = map[string]string{
	domain.MessageOrderByCreatedAt: "m.created_at",
	domain.MessageOrderByUpdatedAt: "m.updated_at",
}

func (r *messageRepository) List(ctx context.Context, q domain.MessageQuery) ([]*domain.Message, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id = $1`, q.ChatID).Scan(&total); err != nil {
		r.log.Error("Failed to count messages", "error", err)
		return nil, 0, err
	}

	column, ok := messageOrderColumns[q.OrderBy]
	if !ok {
		column = "m.created_at"
	}
	query := fmt.Sprintf(`%s WHERE m.chat_id = $1 GROUP BY m.id ORDER BY %s %s, m.id LIMIT $2 OFFSET $3`,
		messageSelect, column, orderDirection(q.OrderDirection, "DESC"))

	messages, err := r.queryMessages(ctx, query, q.ChatID, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *messageRepository) ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]*domain.Message, error) {
	query := messageSelect + ` WHERE m.chat_id = $1 GROUP BY m.id ORDER BY m.created_at DESC, m.id`
	if limit > 0 {
		return r.queryMessages(ctx, query+` LIMIT $2`, chatID, limit)
	}
	return r.queryMessages(ctx, query, chatID)
}

func (r *messageRepository) ListBefore(ctx context.Context, chatID uuid.UUID, t time.Time) ([]*domain.Message, error) {
	query := messageSelect + ` WHERE m.chat_id = $1 AND m.created_at < $2 GROUP BY m.id ORDER BY m.created_at, m.id`
	return r.queryMessages(ctx, query, chatID, t)
}

func (r *messageRepository) UpdateContent(ctx context.Context, message *domain.Message) error {
	err := r.db.QueryRow(ctx,
		`UPDATE messages SET content = $2, updated_at = $3 WHERE id = $1 RETURNING updated_at`,
		message.ID, message.Content, time.Now(),
	).Scan(&message.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("message %s: %w", message.ID, apperrors.ErrNotFound)
		}
		r.log.Error("Failed to update message", "error", err)
		return err
	}
	return nil
}

func (r *messageRepository) CountNotSeen(ctx context.Context, chatID, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.chat_id = $1
		  AND m.author_id <> $2
		  AND NOT EXISTS (SELECT 1 FROM message_seen s WHERE s.message_id = m.id AND s.user_id = $2)
	`
	var count int
	if err := r.db.QueryRow(ctx, query, chatID, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count unseen messages", "error", err)
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) AddSeen(ctx context.Context, userID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return insertSeen(ctx, tx, []uuid.UUID{userID}, messageIDs)
	})
	if err != nil {
		r.log.Error("Failed to mark messages seen", "error", err, "user_id", userID)
		return err
	}
	return nil
}

func insertSeen(ctx context.Context, tx pgx.Tx, userIDs, messageIDs []uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO message_seen (message_id, user_id)
		SELECT m::uuid, u::uuid FROM unnest($1::text[]) AS m CROSS JOIN unnest($2::text[]) AS u
		ON CONFLICT DO NOTHING`,
		uuidStrings(messageIDs), uuidStrings(userIDs),
	)
	return err
}

func (r *messageRepository) GetSeenBy(ctx context.Context, messageID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		JOIN message_seen s ON s.user_id = users.id
		WHERE s.message_id = $1
		ORDER BY users.created_at, users.id
	`
	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		r.log.Error("Failed to get seen-by users", "error", err)
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *messageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
