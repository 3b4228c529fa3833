// Пакет model — доменные модели videostream.
// VideoRecord — маппинг таблицы video_links.
package model

import "time"

// VideoRecord — запись каталога видео.
// Все поля, кроме Title, задаются при создании и далее не изменяются.
type VideoRecord struct {
	// ID — UUID записи (назначается Catalog Repository при вставке)
	ID string
	// OwnerID — идентификатор владельца (sub из проверенного JWT)
	OwnerID string
	// Title — отображаемое название
	Title string
	// PlaybackURL — URL обработанного (стримингового) видео
	PlaybackURL string
	// ThumbnailURL — URL превью
	ThumbnailURL string
	// StorageRef — ключ объекта в хранилище медиа, используется при удалении
	StorageRef string
	// DurationSeconds — длительность в секундах, nil если определить не удалось
	DurationSeconds *float64
	// Format — контейнер (расширение в нижнем регистре): mp4, mov, avi, mkv
	Format string
	// UploadedAt — время загрузки
	UploadedAt time.Time
}

// DefaultTitle — название видео, если пользователь его не указал.
const DefaultTitle = "Untitled"

// VideoPage — страница результатов каталога.
type VideoPage struct {
	Videos []*VideoRecord
	// Page — номер страницы (с 1)
	Page int
	// Limit — размер страницы
	Limit int
	// Total — общее количество записей владельца (с учётом фильтра)
	Total int
	// TotalPages — ceil(Total / Limit), 0 при Total == 0
	TotalPages int
}
