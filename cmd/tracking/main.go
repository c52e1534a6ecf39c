package main

import (
	"purohit/internal/tracking/handler"
	"purohit/internal/tracking/repository"
	"purohit/internal/tracking/service"
	"purohit/internal/tracking/validator"
	"purohit/pkg/app"
	"purohit/pkg/config"
	"purohit/pkg/kafka"
	kafka_config "purohit/pkg/kafka/config"
	kafka_middleware "purohit/pkg/kafka/middleware"
)

const ServiceName = "tracking"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Tracking service")
	trackingService, producer := initServices(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTrackingHandler(trackingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.TrackingService, *kafka.Producer) {
	trackingValidator := validator.NewTrackingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	sampleRepo := repository.NewMongoSampleRepository(cfg)

	events, producer := initEvents(cfg)

	trackingService := service.NewTrackingService(
		bookingRepo,
		sampleRepo,
		trackingValidator,
		events,
		cfg,
	)

	cfg.Log.Info("Tracking service initialized", "database", cfg.MongoDatabaseName)
	return trackingService, producer
}

// initEvents wires the journey event producer. Events are best-effort, so a
// broken Kafka setup degrades to no events instead of refusing to start.
func initEvents(cfg *config.Config) (service.EventPublisher, *kafka.Producer) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Warn("Kafka configuration invalid, journey events disabled", "error", err)
		return service.NoopEventPublisher{}, nil
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.JourneyEventsTopic, kafkaCfg.JourneyEventsDLQ, cfg.Log)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, journey events disabled", "error", err)
		return service.NoopEventPublisher{}, nil
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return service.NewKafkaEventPublisher(producer, cfg.Log), producer
}
