package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/videostream/internal/domain/model"
)

// ProfileUpdate — допустимые для изменения поля профиля.
// nil = поле не изменяется.
type ProfileUpdate struct {
	Email *string
}

// Empty возвращает true, если обновлять нечего.
func (u ProfileUpdate) Empty() bool {
	return u.Email == nil
}

// UserRepository — доступ к профилям пользователей.
type UserRepository interface {
	// GetByID возвращает профиль или ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.UserProfile, error)
	// Upsert создаёт профиль или обновляет email существующего.
	Upsert(ctx context.Context, id, email string) error
	// Update применяет ProfileUpdate и возвращает обновлённый профиль.
	Update(ctx context.Context, id string, upd ProfileUpdate) (*model.UserProfile, error)
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий профилей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// GetByID возвращает профиль по идентификатору провайдера.
func (r *userRepo) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	u := &model.UserProfile{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	return u, nil
}

// Upsert создаёт профиль. Пустой email не затирает сохранённый.
func (r *userRepo) Upsert(ctx context.Context, id, email string) error {
	if id == "" {
		return fmt.Errorf("%w: id обязателен", ErrValidation)
	}
	query := `
		INSERT INTO users (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email
		WHERE EXCLUDED.email <> ''`

	if _, err := r.db.Exec(ctx, query, id, email); err != nil {
		return fmt.Errorf("ошибка сохранения профиля: %w", err)
	}
	return nil
}

// Update обновляет только поля из ProfileUpdate.
func (r *userRepo) Update(ctx context.Context, id string, upd ProfileUpdate) (*model.UserProfile, error) {
	set, args := buildProfileSet(upd, 2)
	if set == "" {
		return nil, fmt.Errorf("%w: нет полей для обновления", ErrValidation)
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $1 RETURNING id, email, created_at`, set,
	)

	u := &model.UserProfile{}
	err := r.db.QueryRow(ctx, query, append([]any{id}, args...)...).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления профиля: %w", err)
	}
	return u, nil
}

// buildProfileSet строит SET-часть UPDATE по allow-list полей ProfileUpdate.
func buildProfileSet(upd ProfileUpdate, startArg int) (setClause string, args []any) {
	var sets []string
	argNum := startArg

	if upd.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argNum))
		args = append(args, *upd.Email)
	}

	return strings.Join(sets, ", "), args
}
