package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"purohit/internal/tracking/service"
	"purohit/pkg/config"
	"purohit/pkg/kafka"
	kafka_config "purohit/pkg/kafka/config"
	kafka_middleware "purohit/pkg/kafka/middleware"
	"purohit/pkg/logger"
)

const (
	ServiceName   = "notifier"
	ConsumerGroup = "notifier"
)

// notifier consumes journey events and dispatches customer notifications.
// Dispatch is logged here; the actual push channel hangs off the same
// handler once the messaging provider is wired in.
func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Kafka configuration invalid", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.JourneyEventsTopic,
		ConsumerGroup,
		kafkaCfg.JourneyEventsDLQ,
		handleJourneyEvent(cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Notifier consuming journey events",
		"topic", kafkaCfg.JourneyEventsTopic,
		"group_id", ConsumerGroup,
	)

	if err := consumer.Start(ctx); err != nil && err != context.Canceled {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}

type journeyStartedNotification struct {
	BookingID        string     `json:"booking_id"`
	PriestID         string     `json:"priest_id"`
	CustomerID       string     `json:"customer_id"`
	EstimatedArrival *time.Time `json:"estimated_arrival"`
}

type locationUpdatedNotification struct {
	BookingID string  `json:"booking_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func handleJourneyEvent(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		eventType := msg.Headers[kafka.HeaderEventType]

		switch eventType {
		case service.EventJourneyStarted:
			var event journeyStartedNotification
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("could not decode %s event: %w", eventType, err)
			}
			log.Info("Notifying customer of journey start",
				"booking_id", event.BookingID,
				"customer_id", event.CustomerID,
				"priest_id", event.PriestID,
				"estimated_arrival", event.EstimatedArrival,
			)
			return nil

		case service.EventLocationUpdated:
			var event locationUpdatedNotification
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("could not decode %s event: %w", eventType, err)
			}
			log.Info("Priest location updated",
				"booking_id", event.BookingID,
				"latitude", event.Latitude,
				"longitude", event.Longitude,
			)
			return nil

		default:
			log.Warn("Skipping unknown event type", "event_type", eventType, "topic", msg.Topic)
			return nil
		}
	}
}
