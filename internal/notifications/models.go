package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
)

// BookingEvent is the message published to Kafka for every booking state change
type BookingEvent struct {
	ID           uuid.UUID `json:"id"`
	Type         EventType `json:"type"`
	BookingID    string    `json:"booking_id"`
	BookingRef   string    `json:"booking_ref"`
	BusID        string    `json:"bus_id"`
	BusName      string    `json:"bus_name,omitempty"`
	DepartureAt  time.Time `json:"departure_at,omitempty"`
	UserID       string    `json:"user_id"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	SeatIDs      []string  `json:"seat_ids"`
	TotalAmount  int64     `json:"total_amount"`
	Boarding     string    `json:"boarding,omitempty"`
	Dropping     string    `json:"dropping,omitempty"`
	ActorID      string    `json:"actor_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType EventType) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// GetPartitionKey keeps every event of one booking on the same partition
func (e *BookingEvent) GetPartitionKey() string {
	return e.BookingID
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSending NotificationStatus = "SENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
	NotificationStatusSkipped NotificationStatus = "SKIPPED"
)

// EmailNotification is one email rendered from a booking event
type EmailNotification struct {
	ID             uuid.UUID          `json:"id"`
	Event          BookingEvent       `json:"event"`
	RecipientEmail string             `json:"recipient_email"`
	RecipientName  string             `json:"recipient_name"`
	Subject        string             `json:"subject"`
	Status         NotificationStatus `json:"status"`
	RetryCount     int                `json:"retry_count"`
	LastError      *string            `json:"last_error,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
}

func NewEmailNotification(event BookingEvent) *EmailNotification {
	return &EmailNotification{
		ID:             uuid.New(),
		Event:          event,
		RecipientEmail: event.ContactEmail,
		RecipientName:  event.ContactName,
		Subject:        subjectFor(event),
		Status:         NotificationStatusPending,
		CreatedAt:      time.Now(),
	}
}

func subjectFor(event BookingEvent) string {
	switch event.Type {
	case EventBookingConfirmed:
		return "Booking confirmed: " + event.BookingRef
	case EventBookingCancelled:
		return "Booking cancelled: " + event.BookingRef
	default:
		return "Update on booking " + event.BookingRef
	}
}

func (en *EmailNotification) MarkSent() {
	now := time.Now()
	en.Status = NotificationStatusSent
	en.SentAt = &now
}

func (en *EmailNotification) MarkFailed(err error) {
	en.Status = NotificationStatusFailed
	errorStr := err.Error()
	en.LastError = &errorStr
}
