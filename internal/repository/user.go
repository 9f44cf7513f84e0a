package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int, error)
	GetFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
	IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	// AddFriend and RemoveFriend write both directions of the edge or neither.
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
}

type userRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

const userColumns = `id, email, first_name, last_name, avatar, password_hash, salt, is_2fa_enabled,
	two_factor_secret, auth_status, is_active, last_seen, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	user := &domain.User{}
	var status string
	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Avatar, &user.PasswordHash,
		&user.Salt, &user.Is2faEnabled, &user.TwoFactorSecret, &status, &user.IsActive,
		&user.LastSeen, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.AuthStatus = domain.AuthStatus(status)
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		user.ID, strings.ToLower(strings.TrimSpace(user.Email)), user.FirstName, user.LastName, user.Avatar,
		user.PasswordHash, user.Salt, user.Is2faEnabled, user.TwoFactorSecret, string(user.AuthStatus),
		user.IsActive, user.LastSeen, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		// 23505 = unique_violation
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.log.Warn("User already exists (unique violation)", "email", user.Email, "constraint", pgErr.ConstraintName)
			return apperrors.ErrUserAlreadyExists
		}
		r.log.Error("Failed to create user", "error", err, "email", user.Email)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
		}
		r.log.Error("Failed to get user by ID", "error", err)
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s: %w", email, apperrors.ErrNotFound)
		}
		r.log.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[]) ORDER BY created_at`
	return r.queryUsers(ctx, query, uuidStrings(ids))
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, avatar = $5, password_hash = $6, salt = $7,
		    is_2fa_enabled = $8, two_factor_secret = $9, auth_status = $10, is_active = $11,
		    last_seen = $12, updated_at = $13
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		user.ID, strings.ToLower(strings.TrimSpace(user.Email)), user.FirstName, user.LastName, user.Avatar,
		user.PasswordHash, user.Salt, user.Is2faEnabled, user.TwoFactorSecret, string(user.AuthStatus),
		user.IsActive, user.LastSeen, time.Now(),
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user %s: %w", user.ID, apperrors.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrUserAlreadyExists
		}
		r.log.Error("Failed to update user", "error", err)
		return err
	}

	return nil
}

var userOrderColumns = map[string]string{
	domain.UsersOrderByFirstName: "first_name",
	domain.UsersOrderByLastName:  "last_name",
}

func (r *userRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int, error) {
	where := []string{"id <> $1", "auth_status = $2"}
	args := []any{filter.ExcludeID, string(filter.AuthStatus)}

	if name := strings.ReplaceAll(filter.Name, " ", ""); name != "" {
		args = append(args, "%"+escapeLike(name)+"%")
		where = append(where, fmt.Sprintf(
			`(LOWER(first_name) LIKE LOWER($%[1]d) ESCAPE '\' OR LOWER(last_name) LIKE LOWER($%[1]d) ESCAPE '\' OR LOWER(CONCAT(first_name, last_name)) LIKE LOWER($%[1]d) ESCAPE '\')`,
			len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+whereSQL, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count users", "error", err)
		return nil, 0, err
	}

	column, ok := userOrderColumns[filter.OrderBy]
	if !ok {
		column = "first_name"
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d`,
		userColumns, whereSQL, column, orderDirection(filter.OrderDirection, "ASC"), len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	users, err := r.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) GetFriends(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		JOIN user_friends f ON f.friend_id = users.id
		WHERE f.user_id = $1
		ORDER BY first_name, id
	`
	return r.queryUsers(ctx, query, userID)
}

func (r *userRepository) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_friends WHERE user_id = $1 AND friend_id = $2)`,
		userID, otherID,
	).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check friendship", "error", err)
		return false, err
	}
	return exists, nil
}

func (r *userRepository) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, edge := range [][2]uuid.UUID{{userID, friendID}, {friendID, userID}} {
			_, err := tx.Exec(ctx,
				`INSERT INTO user_friends (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				edge[0], edge[1])
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to add friend", "error", err, "user_id", userID, "friend_id", friendID)
		return err
	}
	return nil
}

func (r *userRepository) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, edge := range [][2]uuid.UUID{{userID, friendID}, {friendID, userID}} {
			_, err := tx.Exec(ctx,
				`DELETE FROM user_friends WHERE user_id = $1 AND friend_id = $2`,
				edge[0], edge[1])
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to remove friend", "error", err, "user_id", userID, "friend_id", friendID)
		return err
	}
	return nil
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query users", "error", err)
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.log.Error("Failed to scan user", "error", err)
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
