package notifications

import (
	"context"
	"fmt"
	"sync"

	"busline/internal/shared/config"
	"busline/pkg/logger"
)

// Worker runs the booking event consumer that sends emails
type Worker struct {
	consumer  *KafkaConsumer
	isRunning bool
	mu        sync.Mutex
	cancel    context.CancelFunc
}

func NewWorker(cfg *config.Config) (*Worker, error) {
	if !cfg.Kafka.Enabled {
		return nil, fmt.Errorf("kafka is disabled: set KAFKA_ENABLED=true to run the notification worker")
	}

	emailService, err := NewEmailService(cfg.Email)
	if err != nil {
		return nil, err
	}

	consumer, err := NewKafkaConsumer(DefaultConsumerConfig(cfg.Kafka), emailService)
	if err != nil {
		return nil, err
	}

	logger.GetDefault().Info("notification worker initialized",
		"smtp_host", cfg.Email.SMTPHost, "topic", cfg.Kafka.BookingTopic)
	return &Worker{consumer: consumer}, nil
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("notification worker is already running")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.consumer.Start(ctx)
	w.isRunning = true
	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return fmt.Errorf("notification worker is not running")
	}

	w.cancel()
	w.isRunning = false
	return w.consumer.Stop()
}
