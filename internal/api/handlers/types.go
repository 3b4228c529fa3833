// types.go — JSON-представления ответов API (см. openapi.yaml).
package handlers

import (
	"time"

	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/identity"
)

// Video — запись каталога в ответах API.
type Video struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	StorageRef   string    `json:"storage_ref"`
	Duration     *float64  `json:"duration"`
	Format       string    `json:"format"`
	UploadDate   time.Time `json:"upload_date"`
}

// Pagination — блок пагинации списков.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalVideos int `json:"total_videos"`
	Limit       int `json:"limit"`
}

// VideoList — страница каталога.
type VideoList struct {
	Videos     []Video    `json:"videos"`
	Pagination Pagination `json:"pagination"`
}

// UserProfile — профиль пользователя.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Message — ответ с текстовым сообщением.
type Message struct {
	Message string `json:"message"`
}

// SignUpResponse — ответ регистрации.
// Session присутствует, только если провайдер не требует подтверждения email.
type SignUpResponse struct {
	Message string            `json:"message"`
	User    *identity.User    `json:"user"`
	Session *identity.Session `json:"session,omitempty"`
}

// LoginResponse — ответ входа.
type LoginResponse struct {
	Message string            `json:"message"`
	Session *identity.Session `json:"session"`
	User    *identity.User    `json:"user"`
}

// MeResponse — пользователь токена.
type MeResponse struct {
	User *identity.User `json:"user"`
}

// RootInfo — описание сервиса на GET /.
type RootInfo struct {
	Message   string        `json:"message"`
	Status    string        `json:"status"`
	Endpoints RootEndpoints `json:"endpoints"`
}

// RootEndpoints — префиксы групп API.
type RootEndpoints struct {
	Auth   string `json:"auth"`
	Videos string `json:"videos"`
	Users  string `json:"users"`
}

func toVideo(rec *model.VideoRecord) Video {
	return Video{
		ID:           rec.ID,
		UserID:       rec.OwnerID,
		Title:        rec.Title,
		VideoURL:     rec.PlaybackURL,
		ThumbnailURL: rec.ThumbnailURL,
		StorageRef:   rec.StorageRef,
		Duration:     rec.DurationSeconds,
		Format:       rec.Format,
		UploadDate:   rec.UploadedAt.UTC(),
	}
}

func toVideoList(page *model.VideoPage) VideoList {
	videos := make([]Video, 0, len(page.Videos))
	for _, rec := range page.Videos {
		videos = append(videos, toVideo(rec))
	}
	return VideoList{
		Videos: videos,
		Pagination: Pagination{
			CurrentPage: page.Page,
			TotalPages:  page.TotalPages,
			TotalVideos: page.Total,
			Limit:       page.Limit,
		},
	}
}

func toUserProfile(u *model.UserProfile) UserProfile {
	return UserProfile{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt.UTC()}
}
