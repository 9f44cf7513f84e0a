package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository interface {
	// Create stores the chat and its initial members in one transaction.
	Create(ctx context.Context, chat *domain.Chat, memberIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	GetMembers(ctx context.Context, chatID uuid.UUID) ([]*domain.User, error)
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	// GetOrCreateFriendsChat returns the friend chat of the unordered pair,
	// creating it when absent. created reports which happened.
	GetOrCreateFriendsChat(ctx context.Context, userID, friendID uuid.UUID) (chat *domain.Chat, created bool, err error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	ListFriendsChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	AddMember(ctx context.Context, chatID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, chatID, userID uuid.UUID) error
}

type chatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

const chatColumns = `chats.id, chats.name, chats.is_friends_chat, chats.img_url, chats.admin_id`

func scanChat(row scanner) (*domain.Chat, error) {
	chat := &domain.Chat{}
	if err := row.Scan(&chat.ID, &chat.Name, &chat.IsFriendsChat, &chat.ImgURL, &chat.AdminID); err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat, memberIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return insertChat(ctx, tx, chat, memberIDs)
	})
	if err != nil {
		r.log.Error("Failed to create chat", "error", err)
		return err
	}
	return nil
}

func insertChat(ctx context.Context, tx pgx.Tx, chat *domain.Chat, memberIDs []uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO chats (id, name, is_friends_chat, img_url, admin_id) VALUES ($1, $2, $3, $4, $5)`,
		chat.ID, chat.Name, chat.IsFriendsChat, chat.ImgURL, chat.AdminID,
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO chat_users (chat_id, user_id)
		 SELECT $1, unnest($2::text[])::uuid
		 ON CONFLICT DO NOTHING`,
		chat.ID, uuidStrings(memberIDs),
	)
	return err
}

func (r *chatRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	chat, err := scanChat(r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat %s: %w", id, apperrors.ErrNotFound)
		}
		r.log.Error("Failed to get chat", "error", err)
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) GetMembers(ctx context.Context, chatID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		JOIN chat_users cu ON cu.user_id = users.id
		WHERE cu.chat_id = $1
		ORDER BY users.created_at, users.id
	`
	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		r.log.Error("Failed to get chat members", "error", err)
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

func (r *chatRepository) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_users WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID,
	).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check chat membership", "error", err)
		return false, err
	}
	return exists, nil
}

func (r *chatRepository) GetOrCreateFriendsChat(ctx context.Context, userID, friendID uuid.UUID) (*domain.Chat, bool, error) {
	pair := []string{userID.String(), friendID.String()}
	sort.Strings(pair)

	var (
		chat    *domain.Chat
		created bool
	)
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		// Serializes concurrent get-or-create calls for the same pair.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pair[0]+":"+pair[1]); err != nil {
			return err
		}

		query := `
			SELECT ` + chatColumns + `
			FROM chats
			JOIN chat_users a ON a.chat_id = chats.id AND a.user_id = $1
			JOIN chat_users b ON b.chat_id = chats.id AND b.user_id = $2
			WHERE chats.is_friends_chat = TRUE
			LIMIT 1
		`
		existing, err := scanChat(tx.QueryRow(ctx, query, userID, friendID))
		if err == nil {
			chat = existing
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		chat = &domain.Chat{ID: uuid.New(), IsFriendsChat: true}
		created = true
		return insertChat(ctx, tx, chat, []uuid.UUID{userID, friendID})
	})
	if err != nil {
		r.log.Error("Failed to get or create friends chat", "error", err)
		return nil, false, err
	}
	return chat, created, nil
}

func (r *chatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		JOIN chat_users cu ON cu.chat_id = chats.id
		WHERE cu.user_id = $1
		ORDER BY chats.name NULLS LAST, chats.id
	`
	return r.queryChats(ctx, query, userID)
}

func (r *chatRepository) ListFriendsChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		JOIN chat_users cu ON cu.chat_id = chats.id
		WHERE cu.user_id = $1 AND chats.is_friends_chat = TRUE
		ORDER BY chats.id
	`
	return r.queryChats(ctx, query, userID)
}

func (r *chatRepository) AddMember(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO chat_users (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		chatID, userID)
	if err != nil {
		r.log.Error("Failed to add chat member", "error", err)
		return err
	}
	return nil
}

func (r *chatRepository) RemoveMember(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chat_users WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		r.log.Error("Failed to remove chat member", "error", err)
		return err
	}
	return nil
}

func (r *chatRepository) queryChats(ctx context.Context, query string, args ...any) ([]*domain.Chat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query chats", "error", err)
		return nil, err
	}
	defer rows.Close()

	chats := []*domain.Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}
