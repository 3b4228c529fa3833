// videos.go — обработчики /api/videos: загрузка, каталог владельца, получение и удаление.
// Владелец всегда берётся из проверенного токена, никогда из тела или query.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
	"github.com/bigkaa/videostream/internal/api/middleware"
	"github.com/bigkaa/videostream/internal/service"
)

const (
	// multipartMemory — часть формы, удерживаемая в памяти; остальное уходит во временные файлы.
	multipartMemory = 32 << 20
	// multipartOverhead — запас на границы и поля формы сверх размера файла.
	multipartOverhead = 1 << 20
)

// UploadVideo — POST /api/videos/upload (multipart: video, title).
func (h *APIHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	owner := middleware.SubjectFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.PayloadTooLarge(w, "Файл превышает максимальный размер загрузки")
			return
		}
		apierrors.ValidationError(w, "Ожидается multipart/form-data с полем video")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("Не удалось удалить временные файлы формы", slog.String("error", err.Error()))
		}
	}()

	file, header, err := r.FormFile("video")
	if err != nil {
		apierrors.ValidationError(w, "Видеофайл не передан")
		return
	}
	defer file.Close()

	rec, err := h.ingestion.Upload(r.Context(), owner, service.UploadInput{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
		Title:    r.FormValue("title"),
	})
	if err != nil {
		h.writeServiceError(w, r, "upload_video", err)
		return
	}

	writeJSON(w, http.StatusCreated, toVideo(rec))
}

// ListMyVideos — GET /api/videos/my-videos?page&limit.
func (h *APIHandler) ListMyVideos(w http.ResponseWriter, r *http.Request) {
	page, limit := h.pageParams(r)

	result, err := h.catalog.List(r.Context(), middleware.SubjectFromContext(r.Context()), page, limit)
	if err != nil {
		h.writeServiceError(w, r, "list_videos", err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoList(result))
}

// SearchVideos — GET /api/videos/search?query&page&limit.
func (h *APIHandler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	var query *string
	if err := runtime.BindQueryParameter("form", true, false, "query", r.URL.Query(), &query); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр query")
		return
	}
	page, limit := h.pageParams(r)
	if query == nil {
		query = new(string)
	}

	result, err := h.catalog.Search(r.Context(), middleware.SubjectFromContext(r.Context()), *query, page, limit)
	if err != nil {
		h.writeServiceError(w, r, "search_videos", err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoList(result))
}

// GetVideo — GET /api/videos/{id}.
func (h *APIHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := videoID(w, r)
	if !ok {
		return
	}

	rec, err := h.catalog.Get(r.Context(), middleware.SubjectFromContext(r.Context()), id.String())
	if err != nil {
		h.writeServiceError(w, r, "get_video", err)
		return
	}

	writeJSON(w, http.StatusOK, toVideo(rec))
}

// DeleteVideo — DELETE /api/videos/{id}.
func (h *APIHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := videoID(w, r)
	if !ok {
		return
	}

	if err := h.ingestion.Delete(r.Context(), middleware.SubjectFromContext(r.Context()), id.String()); err != nil {
		h.writeServiceError(w, r, "delete_video", err)
		return
	}

	writeJSON(w, http.StatusOK, Message{Message: "Видео удалено"})
}

// videoID привязывает path-параметр {id} как UUID.
func videoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор видео")
		return uuid.Nil, false
	}
	return id, true
}

// pageParams читает page и limit. Нечисловые значения игнорируются:
// нормализацию до допустимых границ выполняет CatalogService.
func (h *APIHandler) pageParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	return h.intParam(q, "page"), h.intParam(q, "limit")
}

// intParam — необязательный целочисленный query-параметр; 0, если он отсутствует или некорректен.
func (h *APIHandler) intParam(q url.Values, name string) int {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, q, &v); err != nil {
		h.logger.Debug("Некорректный параметр пагинации, используется значение по умолчанию",
			slog.String("param", name),
			slog.String("value", q.Get(name)),
		)
		return 0
	}
	if v == nil {
		return 0
	}
	return *v
}
