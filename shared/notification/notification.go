package notification

//go:generate go run go.uber.org/mock/mockgen -source=./notification.go -destination=./mocks/notification_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"roombook/config"
	"roombook/infras/kafka"
)

const (
	EventBookingApproved  = "booking.approved"
	EventBookingRejected  = "booking.rejected"
	EventBookingDisplaced = "booking.displaced"
)

// Event is a booking lifecycle notification addressed to the requester of
// the affected booking.
type Event struct {
	Type           string `json:"type"`
	BookingID      string `json:"booking_id"`
	RoomID         string `json:"room_id"`
	RecipientID    string `json:"recipient_id"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	BookingDate    string `json:"booking_date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Reason         string `json:"reason,omitempty"`
}

// Dispatcher delivers booking lifecycle events to whoever consumes them.
// Delivery is best-effort: a failed dispatch is reported to the caller but
// never rolls back the state change it describes.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

type kafkaDispatcher struct {
	client kafka.Client
	cfg    *config.Config
}

func NewKafkaDispatcher(client kafka.Client, cfg *config.Config) Dispatcher {
	return &kafkaDispatcher{
		client: client,
		cfg:    cfg,
	}
}

func (d *kafkaDispatcher) Dispatch(ctx context.Context, event Event) error {
	message := kafka.Message{
		Key:   event.BookingID,
		Value: event,
	}

	if err := d.client.SendMessages(ctx, d.cfg.Kafka.Topic.BookingEvents, message); err != nil {
		log.Error().Err(err).
			Str("type", event.Type).
			Str("bookingID", event.BookingID).
			Msg("failed to dispatch booking event")

		return fmt.Errorf("failed to dispatch booking event: %w", err)
	}

	log.Info().
		Str("type", event.Type).
		Str("bookingID", event.BookingID).
		Str("recipient", event.RecipientEmail).
		Msg("booking event dispatched")

	return nil
}
