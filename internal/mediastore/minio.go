package mediastore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions — параметры подключения к MinIO.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// MinioBackend — хранилище ассетов в MinIO.
type MinioBackend struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioBackend создаёт MinIO-бэкенд и при необходимости создаёт бакет.
func NewMinioBackend(ctx context.Context, opts MinioOptions, logger *slog.Logger) (*MinioBackend, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки бакета %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("ошибка создания бакета %s: %w", opts.Bucket, err)
		}
		logger.Info("Бакет создан", slog.String("bucket", opts.Bucket))
	}

	return &MinioBackend{
		client: client,
		bucket: opts.Bucket,
		logger: logger.With(slog.String("component", "minio_backend")),
	}, nil
}

// Name возвращает имя провайдера.
func (b *MinioBackend) Name() string { return "minio" }

// Put загружает объект в бакет.
func (b *MinioBackend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	info, err := b.client.PutObject(ctx, b.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return upstream(b.Name(), "put", err)
	}

	b.logger.Debug("Объект загружен",
		slog.String("bucket", b.bucket),
		slog.String("key", key),
		slog.String("etag", info.ETag),
	)
	return nil
}

// Delete удаляет объект. RemoveObject идемпотентен, поэтому наличие
// объекта проверяется через StatObject.
func (b *MinioBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return upstream(b.Name(), "delete", err)
	}

	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return upstream(b.Name(), "delete", err)
	}
	return nil
}

// Ping проверяет существование бакета.
func (b *MinioBackend) Ping(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return upstream(b.Name(), "ping", err)
	}
	if !exists {
		return upstream(b.Name(), "ping", fmt.Errorf("бакет %s не найден", b.bucket))
	}
	return nil
}
