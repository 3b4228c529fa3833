package mediastore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// sqsAPI — используемая часть SQS-клиента.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier публикует задания транскодинга в очередь SQS.
type SQSNotifier struct {
	client   sqsAPI
	queueURL string
	logger   *slog.Logger
}

// NewSQSNotifier создаёт notifier поверх SQS.
func NewSQSNotifier(awsCfg aws.Config, queueURL string, logger *slog.Logger) *SQSNotifier {
	return &SQSNotifier{
		client:   sqs.NewFromConfig(awsCfg),
		queueURL: queueURL,
		logger:   logger.With(slog.String("component", "sqs_notifier")),
	}
}

// NotifyTranscode отправляет задание в очередь.
func (n *SQSNotifier) NotifyTranscode(ctx context.Context, job TranscodeJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("ошибка сериализации задания транскодинга: %w", err)
	}

	out, err := n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return upstream("sqs", "notify", err)
	}

	n.logger.Info("Задание транскодинга поставлено в очередь",
		slog.String("storage_ref", job.StorageRef),
		slog.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}
