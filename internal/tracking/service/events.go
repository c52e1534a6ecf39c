package service

import (
	"context"
	"time"

	"purohit/pkg/kafka"
	"purohit/pkg/logger"
	"purohit/pkg/model"
)

// Journey event types published to the journey events topic.
const (
	EventJourneyStarted  = "journey.started"
	EventLocationUpdated = "journey.location-updated"

	eventSchemaVersion = "1"
	eventSource        = "tracking"
)

// EventPublisher emits journey domain events. Publishing is best-effort:
// implementations log failures and never propagate them, so a broker outage
// cannot fail a location write.
type EventPublisher interface {
	JourneyStarted(ctx context.Context, booking *model.Booking)
	LocationUpdated(ctx context.Context, sample *model.LocationSample)
}

type journeyStartedEvent struct {
	BookingID        string     `json:"booking_id"`
	PriestID         string     `json:"priest_id"`
	CustomerID       string     `json:"customer_id"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
}

type locationUpdatedEvent struct {
	BookingID string    `json:"booking_id"`
	PriestID  string    `json:"priest_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	SampledAt time.Time `json:"sampled_at"`
}

type kafkaEventPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaEventPublisher(producer *kafka.Producer, log *logger.Logger) EventPublisher {
	return &kafkaEventPublisher{producer: producer, log: log}
}

func (p *kafkaEventPublisher) JourneyStarted(ctx context.Context, booking *model.Booking) {
	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(EventJourneyStarted).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		WithValue(journeyStartedEvent{
			BookingID:        booking.ID,
			PriestID:         booking.PriestID,
			CustomerID:       booking.CustomerID,
			EstimatedArrival: booking.EstimatedArrival,
			StartedAt:        time.Now().UTC(),
		}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish journey.started event",
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (p *kafkaEventPublisher) LocationUpdated(ctx context.Context, sample *model.LocationSample) {
	msg := kafka.NewMessage().
		WithKey(sample.BookingID).
		WithEventType(EventLocationUpdated).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		WithValue(locationUpdatedEvent{
			BookingID: sample.BookingID,
			PriestID:  sample.PriestID,
			Latitude:  sample.Latitude,
			Longitude: sample.Longitude,
			SampledAt: sample.UpdatedAt,
		}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish journey.location-updated event",
			"booking_id", sample.BookingID,
			"error", err,
		)
	}
}

// NoopEventPublisher drops all events. Used when Kafka is not configured.
type NoopEventPublisher struct{}

func (NoopEventPublisher) JourneyStarted(ctx context.Context, booking *model.Booking) {}

func (NoopEventPublisher) LocationUpdated(ctx context.Context, sample *model.LocationSample) {}
