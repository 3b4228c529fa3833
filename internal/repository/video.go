package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/videostream/internal/domain/model"
)

// videoColumns — столбцы video_links для SELECT-запросов.
const videoColumns = `id, user_id, title, video_url, thumbnail_url,
	storage_ref, duration, format, upload_date`

// Стабильный порядок каталога: новые сверху, id — tie-breaker.
const videoOrderBy = `ORDER BY upload_date DESC, id DESC`

// VideoRepository — доступ к каталогу видео.
// Все операции чтения и удаления, кроме GetByID, ограничены владельцем.
type VideoRepository interface {
	// Insert сохраняет запись. ID и UploadedAt назначаются, если не заданы.
	Insert(ctx context.Context, rec *model.VideoRecord) (*model.VideoRecord, error)
	// GetByID возвращает запись по UUID без проверки владельца.
	GetByID(ctx context.Context, id string) (*model.VideoRecord, error)
	// GetByIDAndOwner возвращает запись, только если она принадлежит ownerID.
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.VideoRecord, error)
	// ListByOwner возвращает страницу записей владельца и их общее количество.
	ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*model.VideoRecord, int, error)
	// SearchByOwnerAndTitle — как ListByOwner, с фильтром по подстроке названия (без учёта регистра).
	SearchByOwnerAndTitle(ctx context.Context, ownerID, substring string, page, pageSize int) ([]*model.VideoRecord, int, error)
	// DeleteByIDAndOwner удаляет запись, только если она принадлежит ownerID.
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error
}

type videoRepo struct {
	db  DBTX
	now func() time.Time
}

// NewVideoRepository создаёт репозиторий каталога видео.
func NewVideoRepository(db DBTX) VideoRepository {
	return &videoRepo{db: db, now: time.Now}
}

// Insert сохраняет запись каталога.
func (r *videoRepo) Insert(ctx context.Context, rec *model.VideoRecord) (*model.VideoRecord, error) {
	if rec == nil || rec.OwnerID == "" || rec.PlaybackURL == "" {
		return nil, fmt.Errorf("%w: owner и playback URL обязательны", ErrValidation)
	}
	if rec.StorageRef == "" {
		return nil, fmt.Errorf("%w: storage ref обязателен", ErrValidation)
	}

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.UploadedAt.IsZero() {
		stored.UploadedAt = r.now().UTC()
	}
	if stored.Title == "" {
		stored.Title = model.DefaultTitle
	}

	query := `
		INSERT INTO video_links (
			id, user_id, title, video_url, thumbnail_url,
			storage_ref, duration, format, upload_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		stored.ID, stored.OwnerID, stored.Title, stored.PlaybackURL, stored.ThumbnailURL,
		stored.StorageRef, stored.DurationSeconds, stored.Format, stored.UploadedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка вставки записи каталога: %w", err)
	}
	return &stored, nil
}

// GetByID возвращает запись по UUID или ErrNotFound.
func (r *videoRepo) GetByID(ctx context.Context, id string) (*model.VideoRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM video_links WHERE id = $1`, videoColumns)
	return r.getOne(ctx, query, id)
}

// GetByIDAndOwner возвращает запись владельца или ErrNotFound.
// Чужая запись неотличима от отсутствующей.
func (r *videoRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.VideoRecord, error) {
	if _, err := uuid.Parse(id); err != nil || ownerID == "" {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM video_links WHERE id = $1 AND user_id = $2`, videoColumns)
	return r.getOne(ctx, query, id, ownerID)
}

func (r *videoRepo) getOne(ctx context.Context, query string, args ...any) (*model.VideoRecord, error) {
	v, err := scanVideo(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи каталога: %w", err)
	}
	return v, nil
}

// ListByOwner возвращает страницу записей владельца.
func (r *videoRepo) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	return r.page(ctx, ownerID, "", page, pageSize)
}

// SearchByOwnerAndTitle возвращает страницу записей владельца с подстрокой в названии.
// Пустая подстрока эквивалентна ListByOwner.
func (r *videoRepo) SearchByOwnerAndTitle(ctx context.Context, ownerID, substring string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	return r.page(ctx, ownerID, substring, page, pageSize)
}

// page выполняет выборку страницы и подсчёт общего количества с одним WHERE.
// Страница за пределами диапазона возвращает пустой срез без ошибки.
func (r *videoRepo) page(ctx context.Context, ownerID, substring string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	if ownerID == "" {
		return nil, 0, fmt.Errorf("%w: owner обязателен", ErrValidation)
	}

	limit, offset := pageBounds(page, pageSize)
	where, args := buildOwnerWhere(ownerID, substring, 1)
	argNum := len(args) + 1

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM video_links %s %s LIMIT $%d OFFSET $%d`,
		videoColumns, where, videoOrderBy, argNum, argNum+1,
	)
	dataArgs := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.Query(ctx, dataQuery, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выборки каталога: %w", err)
	}
	defer rows.Close()

	result := make([]*model.VideoRecord, 0, limit)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования записи каталога: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM video_links %s`, where)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта записей каталога: %w", err)
	}

	return result, total, nil
}

// DeleteByIDAndOwner удаляет запись владельца или возвращает ErrNotFound.
func (r *videoRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil || ownerID == "" {
		return ErrNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM video_links WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи каталога: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanVideo сканирует строку video_links (pgx.Row и pgx.Rows).
func scanVideo(row pgx.Row) (*model.VideoRecord, error) {
	v := &model.VideoRecord{}
	var id uuid.UUID
	if err := row.Scan(
		&id, &v.OwnerID, &v.Title, &v.PlaybackURL, &v.ThumbnailURL,
		&v.StorageRef, &v.DurationSeconds, &v.Format, &v.UploadedAt,
	); err != nil {
		return nil, err
	}
	v.ID = id.String()
	return v, nil
}

// buildOwnerWhere строит WHERE-условие каталога: владелец + опциональная подстрока названия.
// startArg — номер первого $-параметра.
func buildOwnerWhere(ownerID, substring string, startArg int) (whereClause string, args []any) {
	conditions := []string{fmt.Sprintf("user_id = $%d", startArg)}
	args = append(args, ownerID)

	if substring != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", startArg+1))
		args = append(args, "%"+escapeLike(substring)+"%")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// likeEscaper экранирует метасимволы LIKE (escape-символ по умолчанию — обратный слеш).
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// pageBounds нормализует номер (с 1) и размер страницы в LIMIT/OFFSET.
// pageSize ограничивается [1, MaxPageSize], page < 1 считается первой страницей.
func pageBounds(page, pageSize int) (limit, offset int) {
	limit = pageSize
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	// Защита от переполнения при огромных page
	if page-1 > (math.MaxInt32-limit)/limit {
		return limit, math.MaxInt32
	}
	return limit, (page - 1) * limit
}
