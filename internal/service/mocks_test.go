package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/identity"
	"github.com/bigkaa/videostream/internal/mediastore"
	"github.com/bigkaa/videostream/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock VideoRepository (in-memory) ---

type mockVideoRepo struct {
	mu      sync.Mutex
	records []*model.VideoRecord
	clock   time.Time

	insertErr error
	queryErr  error
	deleteErr error
	getCalls  int
}

func newMockVideoRepo() *mockVideoRepo {
	return &mockVideoRepo{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *mockVideoRepo) Insert(_ context.Context, rec *model.VideoRecord) (*model.VideoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	stored := *rec
	stored.ID = uuid.NewString()
	m.clock = m.clock.Add(time.Second)
	stored.UploadedAt = m.clock
	m.records = append(m.records, &stored)
	out := stored
	return &out, nil
}

func (m *mockVideoRepo) GetByID(_ context.Context, id string) (*model.VideoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	for _, r := range m.records {
		if r.ID == id {
			out := *r
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockVideoRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*model.VideoRecord, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	rec, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (m *mockVideoRepo) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	return m.SearchByOwnerAndTitle(ctx, ownerID, "", page, pageSize)
}

func (m *mockVideoRepo) SearchByOwnerAndTitle(_ context.Context, ownerID, substring string, page, pageSize int) ([]*model.VideoRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, 0, m.queryErr
	}
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
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UploadedAt.After(matched[j].UploadedAt)
	})
	total := len(matched)
	from := (page - 1) * pageSize
	if from >= total {
		return []*model.VideoRecord{}, total, nil
	}
	to := min(from+pageSize, total)
	return matched[from:to], total, nil
}

func (m *mockVideoRepo) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, r := range m.records {
		if r.ID == id && r.OwnerID == ownerID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Mock AssetStore ---

type mockAssetStore struct {
	mu        sync.Mutex
	objects   map[string]int64
	storeErr  error
	deleteErr error
	deleted   []string
}

func newMockAssetStore() *mockAssetStore {
	return &mockAssetStore{objects: make(map[string]int64)}
}

func (m *mockAssetStore) StoreAsset(_ context.Context, up mediastore.Upload) (*mediastore.StoredAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	format := mediastore.FormatOf(up.Filename)
	if format != "mp4" && format != "mov" {
		return nil, fmt.Errorf("%w: формат %q", mediastore.ErrUnsupportedMedia, format)
	}
	ref := up.OwnerID + "/" + uuid.NewString() + "." + format
	m.objects[ref] = up.Size
	return &mediastore.StoredAsset{
		StorageRef:   ref,
		PlaybackURL:  "https://cdn.test/full_hd/" + ref,
		ThumbnailURL: "https://cdn.test/thumbnails/w_320/" + strings.TrimSuffix(ref, "."+format) + ".jpg",
		Format:       format,
	}, nil
}

func (m *mockAssetStore) DeleteAsset(_ context.Context, storageRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, storageRef)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[storageRef]; !ok {
		return mediastore.ErrNotFound
	}
	delete(m.objects, storageRef)
	return nil
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	users     map[string]*model.UserProfile
	upsertErr error
	updateErr error
	lastUpd   repository.ProfileUpdate
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.UserProfile)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.UserProfile, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, id, email string) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	u, ok := m.users[id]
	if !ok {
		m.users[id] = &model.UserProfile{ID: id, Email: email, CreatedAt: time.Now()}
		return nil
	}
	if email != "" {
		u.Email = email
	}
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, id string, upd repository.ProfileUpdate) (*model.UserProfile, error) {
	m.lastUpd = upd
	if m.updateErr != nil {
		return nil, m.updateErr
	}
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

// --- Mock IdentityProvider ---

type mockProvider struct {
	signUpFn         func(email, password, redirectTo string) (*identity.User, *identity.Session, error)
	signInFn         func(email, password string) (*identity.Session, error)
	signOutErr       error
	getUserFn        func(token string) (*identity.User, error)
	recoverFn        func(email, redirectTo string) error
	updatePasswordFn func(token, password string) (*identity.User, error)
}

func (m *mockProvider) SignUp(_ context.Context, email, password, redirectTo string) (*identity.User, *identity.Session, error) {
	return m.signUpFn(email, password, redirectTo)
}

func (m *mockProvider) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	return m.signInFn(email, password)
}

func (m *mockProvider) SignOut(context.Context, string) error {
	return m.signOutErr
}

func (m *mockProvider) GetUser(_ context.Context, token string) (*identity.User, error) {
	return m.getUserFn(token)
}

func (m *mockProvider) Recover(_ context.Context, email, redirectTo string) error {
	return m.recoverFn(email, redirectTo)
}

func (m *mockProvider) UpdatePassword(_ context.Context, token, password string) (*identity.User, error) {
	return m.updatePasswordFn(token, password)
}
