package mediastore

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestMinioBackend(t *testing.T) (*MinioBackend, *objectServer) {
	t.Helper()
	fake, srv := newObjectServer(t, "videos")
	b, err := NewMinioBackend(context.Background(), MinioOptions{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "test-key",
		SecretKey: "test-secret",
		UseSSL:    false,
		Region:    "us-east-1",
		Bucket:    "videos",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewMinioBackend: %v", err)
	}
	return b, fake
}

func TestMinioBackend_DeleteMissing(t *testing.T) {
	b, _ := newTestMinioBackend(t)

	err := b.Delete(context.Background(), "u1/missing.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete отсутствующего объекта: %v, ожидается ErrNotFound", err)
	}
}

func TestMinioBackend_PutThenDeleteTwice(t *testing.T) {
	b, fake := newTestMinioBackend(t)
	ctx := context.Background()
	data := []byte("video-bytes")

	if err := b.Put(ctx, "u1/a.mp4", bytes.NewReader(data), int64(len(data)), "video/mp4"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !fake.has("u1/a.mp4") {
		t.Fatal("объект не появился в бакете")
	}

	if err := b.Delete(ctx, "u1/a.mp4"); err != nil {
		t.Fatalf("первый Delete: %v", err)
	}
	if fake.has("u1/a.mp4") {
		t.Error("объект остался в бакете после удаления")
	}

	err := b.Delete(ctx, "u1/a.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete: %v, ожидается ErrNotFound", err)
	}
}

func TestMinioBackend_ProviderFailure(t *testing.T) {
	b, fake := newTestMinioBackend(t)
	fake.setFail(true)

	var upErr *UpstreamError
	err := b.Delete(context.Background(), "u1/a.mp4")
	if !errors.As(err, &upErr) {
		t.Fatalf("Delete при сбое: %v, ожидается *UpstreamError", err)
	}
	if upErr.Provider != "minio" || upErr.Op != "delete" {
		t.Errorf("UpstreamError = %s/%s, ожидается minio/delete", upErr.Provider, upErr.Op)
	}
}

func TestMinioBackend_Ping(t *testing.T) {
	b, _ := newTestMinioBackend(t)
	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
