package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	ClientID             string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig(cfg config.KafkaConfig) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              cfg.Brokers,
		GroupID:              cfg.ConsumerGroup,
		Topics:               []string{cfg.BookingTopic},
		ClientID:             cfg.ClientID,
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    time.Minute,
		OffsetOldest:         true,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       *ConsumerGroupHandler
	wg            sync.WaitGroup
}

func NewKafkaConsumer(cfg *ConsumerConfig, emailService EmailService) (*KafkaConsumer, error) {
	sc := sarama.NewConfig()
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Consumer.Group.Session.Timeout = cfg.SessionTimeout
	sc.Consumer.Group.Heartbeat.Interval = cfg.Heartbeat
	sc.Consumer.MaxProcessingTime = cfg.MaxProcessingTime
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.AutoCommit.Enable = true
	sc.Consumer.Offsets.AutoCommit.Interval = time.Second
	if cfg.OffsetOldest {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{
		consumerGroup: group,
		config:        cfg,
		handler:       NewConsumerGroupHandler(emailService, cfg.MaxRetries, cfg.RetryBackoffDuration),
	}, nil
}

// Start consumes until ctx is cancelled
func (kc *KafkaConsumer) Start(ctx context.Context) {
	kc.wg.Add(2)
	go func() {
		defer kc.wg.Done()
		for err := range kc.consumerGroup.Errors() {
			logger.GetDefault().Error("consumer group error", "error", err)
		}
	}()
	go func() {
		defer kc.wg.Done()
		for {
			if err := kc.consumerGroup.Consume(ctx, kc.config.Topics, kc.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				logger.GetDefault().Error("error consuming booking events", "error", err)
				time.Sleep(time.Second)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	logger.GetDefault().Info("notification consumer started", "topics", kc.config.Topics, "group", kc.config.GroupID)
}

func (kc *KafkaConsumer) Stop() error {
	err := kc.consumerGroup.Close()
	kc.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	logger.GetDefault().Info("notification consumer stopped")
	return nil
}

// ConsumerGroupHandler turns each booking event into one email
type ConsumerGroupHandler struct {
	emailService EmailService
	maxRetries   int
	backoff      time.Duration
}

func NewConsumerGroupHandler(emailService EmailService, maxRetries int, backoff time.Duration) *ConsumerGroupHandler {
	return &ConsumerGroupHandler{emailService: emailService, maxRetries: maxRetries, backoff: backoff}
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if _, err := h.ProcessMessage(session.Context(), message); err != nil {
				logger.GetDefault().Error("failed to process booking event",
					"topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
			}
			// failed emails are not redelivered; the booking itself is already committed
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// ProcessMessage decodes one event and sends its email with retries
func (h *ConsumerGroupHandler) ProcessMessage(ctx context.Context, message *sarama.ConsumerMessage) (*EmailNotification, error) {
	var event BookingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking event: %w", err)
	}

	notification := NewEmailNotification(event)
	if notification.RecipientEmail == "" {
		notification.Status = NotificationStatusSkipped
		return notification, nil
	}

	notification.Status = NotificationStatusSending
	if err := h.executeWithRetry(ctx, notification); err != nil {
		notification.MarkFailed(err)
		return notification, err
	}
	notification.MarkSent()
	return notification, nil
}

func (h *ConsumerGroupHandler) executeWithRetry(ctx context.Context, notification *EmailNotification) error {
	var err error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if err = h.emailService.SendNotification(ctx, notification); err == nil {
			return nil
		}
		if attempt == h.maxRetries {
			break
		}
		notification.RetryCount++

		delay := h.backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", h.maxRetries+1, err)
}
