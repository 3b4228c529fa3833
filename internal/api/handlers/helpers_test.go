package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bigkaa/videostream/internal/api/middleware"
	"github.com/bigkaa/videostream/internal/api/openapi"
	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/identity"
	"github.com/bigkaa/videostream/internal/mediastore"
	"github.com/bigkaa/videostream/internal/repository"
	"github.com/bigkaa/videostream/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- OpenAPI ---

var (
	contractOnce   sync.Once
	contractRouter routers.Router
	contractErr    error
)

// validateResponse проверяет ответ по встроенному OpenAPI контракту.
func validateResponse(t *testing.T, req *http.Request, rec *httptest.ResponseRecorder) {
	t.Helper()
	contractOnce.Do(func() {
		var doc *openapi3.T
		doc, contractErr = openapi.Load(context.Background())
		if contractErr != nil {
			return
		}
		contractRouter, contractErr = legacy.NewRouter(doc)
	})
	if contractErr != nil {
		t.Fatalf("загрузка OpenAPI контракта: %v", contractErr)
	}

	route, pathParams, err := contractRouter.FindRoute(req)
	if err != nil {
		t.Fatalf("маршрут %s %s отсутствует в контракте: %v", req.Method, req.URL.Path, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status:  rec.Code,
		Header:  rec.Header(),
		Options: &openapi3filter.Options{IncludeResponseStatus: true},
	}
	input.SetBodyBytes(rec.Body.Bytes())

	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("ответ %d %s %s не соответствует контракту: %v\nтело: %s",
			rec.Code, req.Method, req.URL.Path, err, rec.Body.String())
	}
}

// --- Fakes ---

// tokenVerifier — токен "token-<sub>" валиден для субъекта <sub>.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (*model.Principal, error) {
	sub, ok := strings.CutPrefix(token, "token-")
	if !ok || sub == "" {
		return nil, errors.New("invalid token")
	}
	return &model.Principal{Subject: sub, Role: "authenticated"}, nil
}

// memoryBackend — объектное хранилище в памяти.
type memoryBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	putErr  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: make(map[string][]byte)}
}

func (b *memoryBackend) Name() string { return "memory" }

func (b *memoryBackend) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	b.objects[key] = data
	return nil
}

func (b *memoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return mediastore.ErrNotFound
	}
	delete(b.objects, key)
	return nil
}

func (b *memoryBackend) Ping(context.Context) error { return nil }

// memoryVideoRepo — каталог в памяти.
type memoryVideoRepo struct {
	mu      sync.Mutex
	records []*model.VideoRecord
	clock   time.Time
}

func newMemoryVideoRepo() *memoryVideoRepo {
	return &memoryVideoRepo{clock: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memoryVideoRepo) Insert(_ context.Context, rec *model.VideoRecord) (*model.VideoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *rec
	stored.ID = uuid.NewString()
	m.clock = m.clock.Add(time.Second)
	stored.UploadedAt = m.clock
	m.records = append(m.records, &stored)
	out := stored
	return &out, nil
}

func (m *memoryVideoRepo) GetByID(_ context.Context, id string) (*model.VideoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			out := *r
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryVideoRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.VideoRecord, error) {
	rec, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memoryVideoRepo) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	return m.SearchByOwnerAndTitle(ctx, ownerID, "", page, pageSize)
}

func (m *memoryVideoRepo) SearchByOwnerAndTitle(_ context.Context, ownerID, substring string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*model.VideoRecord
	for _, r := range m.records {
		if r.OwnerID != ownerID {
			continue
		}
		if substring != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(substring)) {
			continue
		}
		out := *r
		matched = append(matched, &out)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].UploadedAt.After(matched[j].UploadedAt) })
	total := len(matched)
	from := (page - 1) * pageSize
	if from >= total {
		return []*model.VideoRecord{}, total, nil
	}
	return matched[from:min(from+pageSize, total)], total, nil
}

func (m *memoryVideoRepo) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id && r.OwnerID == ownerID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// memoryUserRepo — профили в памяти.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.UserProfile
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*model.UserProfile)}
}

func (m *memoryUserRepo) GetByID(_ context.Context, id string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memoryUserRepo) Upsert(_ context.Context, id, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		if email != "" {
			u.Email = email
		}
		return nil
	}
	m.users[id] = &model.UserProfile{ID: id, Email: email, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return nil
}

func (m *memoryUserRepo) Update(_ context.Context, id string, upd repository.ProfileUpdate) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	out := *u
	return &out, nil
}

// fakeProvider — identity provider: пароль "correct-password" принимается для любого email.
type fakeProvider struct {
	down bool
}

func (p *fakeProvider) SignUp(_ context.Context, email, _, _ string) (*identity.User, *identity.Session, error) {
	if p.down {
		return nil, nil, errors.New("dial tcp: connection refused")
	}
	if strings.HasPrefix(email, "taken") {
		return nil, nil, &identity.ProviderError{StatusCode: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	return &identity.User{ID: "user-" + email, Email: email, CreatedAt: time.Now().UTC()}, nil, nil
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	if p.down {
		return nil, errors.New("dial tcp: connection refused")
	}
	if password != "correct-password" {
		return nil, &identity.ProviderError{StatusCode: http.StatusBadRequest, Code: "invalid_grant", Message: "Invalid login credentials"}
	}
	user := &identity.User{ID: "user-" + email, Email: email, CreatedAt: time.Now().UTC()}
	return &identity.Session{AccessToken: "token-" + user.ID, TokenType: "bearer", ExpiresIn: 3600, RefreshToken: "refresh", User: user}, nil
}

func (p *fakeProvider) SignOut(_ context.Context, token string) error {
	if !strings.HasPrefix(token, "token-") {
		return &identity.ProviderError{StatusCode: http.StatusUnauthorized}
	}
	return nil
}

func (p *fakeProvider) GetUser(_ context.Context, token string) (*identity.User, error) {
	sub, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, &identity.ProviderError{StatusCode: http.StatusUnauthorized, Code: "bad_jwt"}
	}
	return &identity.User{ID: sub, Email: sub + "@example.com"}, nil
}

func (p *fakeProvider) Recover(context.Context, string, string) error { return nil }

func (p *fakeProvider) UpdatePassword(_ context.Context, _, password string) (*identity.User, error) {
	if len(password) < 6 {
		return nil, &identity.ProviderError{StatusCode: http.StatusUnprocessableEntity, Code: "weak_password"}
	}
	return &identity.User{ID: "u"}, nil
}

// --- Test server ---

type testEnv struct {
	router   http.Handler
	backend  *memoryBackend
	videos   *memoryVideoRepo
	users    *memoryUserRepo
	provider *fakeProvider
}

// testMaxUpload — лимит загрузки в тестах.
const testMaxUpload = 1 << 20

func newTestEnv(t *testing.T, opts ...func(*RouteMiddleware)) *testEnv {
	t.Helper()
	logger := testLogger()

	env := &testEnv{
		backend:  newMemoryBackend(),
		videos:   newMemoryVideoRepo(),
		users:    newMemoryUserRepo(),
		provider: &fakeProvider{},
	}

	gateway := mediastore.NewGateway(env.backend,
		mediastore.URLBuilder{PublicURL: "https://cdn.test", Profile: "full_hd", ThumbnailWidth: 320},
		mediastore.Constraints{AllowedFormats: []string{"mp4", "mov", "avi", "mkv"}, MaxSize: testMaxUpload},
		logger,
	)
	cache := service.NewCacheService(100, time.Minute)
	ingestion := service.NewIngestionService(gateway, env.videos, cache, logger)
	catalog := service.NewCatalogService(env.videos, cache, service.Pagination{DefaultLimit: 10, MaxLimit: 100}, logger)
	profiles := service.NewProfileService(env.users, logger)
	auth := service.NewAuthService(env.provider, profiles, "http://localhost:3000", logger)

	health := NewHealthHandler(staticChecker{"ok"}, staticChecker{"ok"}, mediastore.NewReadinessChecker(env.backend))
	h := NewAPIHandler(health, ingestion, catalog, profiles, auth, testMaxUpload, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logger))
	mw := RouteMiddleware{
		Authenticate: middleware.Authenticate(tokenVerifier{}, logger),
		Bearer:       middleware.BearerOnly(),
	}
	for _, opt := range opts {
		opt(&mw)
	}
	HandlerFromMux(h, r, mw)
	env.router = r
	return env
}

// do выполняет запрос и проверяет ответ по контракту.
func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	validateResponse(t, req, rec)
	return rec
}

func authed(req *http.Request, owner string) *http.Request {
	req.Header.Set("Authorization", "Bearer token-"+owner)
	return req
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// uploadRequest строит multipart-запрос загрузки.
func uploadRequest(t *testing.T, filename string, content []byte, title string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("video", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("невалидный JSON: %v\n%s", err, rec.Body.String())
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, rec)
	return body.Error.Code
}

// staticChecker — ReadinessChecker с фиксированным статусом.
type staticChecker struct{ status string }

func (c staticChecker) CheckReady(context.Context) (string, string) {
	return c.status, fmt.Sprintf("статус %s", c.status)
}
