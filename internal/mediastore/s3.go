package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// AWSOptions — параметры подключения к AWS-совместимым сервисам.
type AWSOptions struct {
	Region string
	// Endpoint — S3-совместимый endpoint (MinIO, LocalStack); пусто = AWS
	Endpoint  string
	AccessKey string
	SecretKey string
}

// LoadAWSConfig загружает конфигурацию AWS SDK.
// Без статических ключей используется default credentials chain.
func LoadAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("ошибка загрузки конфигурации AWS SDK: %w", err)
	}
	return cfg, nil
}

// S3Backend — хранилище ассетов в S3.
type S3Backend struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3Backend создаёт S3-бэкенд. Для нестандартного endpoint включается path-style адресация.
func NewS3Backend(awsCfg aws.Config, bucket, endpoint string, logger *slog.Logger) *S3Backend {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Backend{
		client: client,
		bucket: bucket,
		logger: logger.With(slog.String("component", "s3_backend")),
	}
}

// Name возвращает имя провайдера.
func (b *S3Backend) Name() string { return "s3" }

// Put загружает объект в бакет.
func (b *S3Backend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return upstream(b.Name(), "put", err)
	}

	b.logger.Debug("Объект загружен",
		slog.String("bucket", b.bucket),
		slog.String("key", key),
	)
	return nil
}

// Delete удаляет объект. S3 DeleteObject идемпотентен, поэтому наличие
// объекта проверяется через HeadObject.
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ErrNotFound
		}
		return upstream(b.Name(), "delete", err)
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return upstream(b.Name(), "delete", err)
	}
	return nil
}

// Ping проверяет доступность бакета через HeadBucket.
func (b *S3Backend) Ping(ctx context.Context) error {
	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)}); err != nil {
		return upstream(b.Name(), "ping", err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
