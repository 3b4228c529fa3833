package mediastore

import (
	"fmt"
	"strings"
)

// URLBuilder строит производные URL по storage ref.
// Построение детерминировано и не обращается к сети.
type URLBuilder struct {
	// PublicURL — базовый URL раздачи (CDN), без завершающего /
	PublicURL string
	// Profile — профиль стриминга (full_hd); пусто = оригинал
	Profile string
	// ThumbnailWidth — ширина превью в пикселях
	ThumbnailWidth int
}

// Playback — URL стримингового представления: <public>/<profile>/<ref>.
func (b URLBuilder) Playback(storageRef string) string {
	if b.Profile == "" {
		return b.PublicURL + "/" + storageRef
	}
	return b.PublicURL + "/" + b.Profile + "/" + storageRef
}

// Thumbnail — URL превью: <public>/thumbnails/w_<width>/<ref без расширения>.jpg.
func (b URLBuilder) Thumbnail(storageRef string) string {
	base := storageRef
	if i := strings.LastIndexByte(base, '.'); i > strings.LastIndexByte(base, '/') {
		base = base[:i]
	}
	return fmt.Sprintf("%s/thumbnails/w_%d/%s.jpg", b.PublicURL, b.ThumbnailWidth, base)
}
