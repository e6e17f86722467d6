package main

import (
	"context"

	"dayslot/internal/bookings/handler"
	"dayslot/internal/bookings/notifier"
	"dayslot/internal/bookings/repository"
	"dayslot/internal/bookings/service"
	"dayslot/internal/bookings/validator"
	"dayslot/pkg/app"
	"dayslot/pkg/config"
	"dayslot/pkg/kafka"
	kafka_config "dayslot/pkg/kafka/config"
	kafka_middleware "dayslot/pkg/kafka/middleware"
	"dayslot/pkg/obs"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")

	serverApp := app.NewApplication(cfg)

	shutdownTracing, err := obs.Setup(context.Background(), ServiceName, cfg.OtelEndpoint)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize tracing", "error", err)
	}
	serverApp.OnShutdown("tracing", shutdownTracing)

	cfg.SetMongo()

	notices, publishes := initNotifier(cfg, serverApp)
	coordinator, queries := initServices(cfg, notices)

	serverApp.SetApp(
		handler.NewBookingHandler(coordinator, queries, cfg.Log),
		handler.NewHealthHandler(cfg.Client.Mongo.Client, publishes, cfg.Log),
	)
	serverApp.Run()
}

// initNotifier returns a nil Notifier when publishing is disabled; the
// coordinator then skips justification notices.
func initNotifier(cfg *config.Config, serverApp *app.Application) (service.Notifier, *kafka_middleware.PublishMetrics) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled {
		cfg.Log.Info("Justification notifications disabled")
		return nil, nil
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.NotificationTopic, kafkaCfg.DLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	publishes := kafka_middleware.NewPublishMetrics()
	producer.Use(kafka_middleware.MetricsProducerMiddleware(publishes))
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	serverApp.OnShutdown("kafka-producer", func(context.Context) error {
		return producer.Close()
	})

	cfg.Log.Info("Justification notifications enabled", "topic", producer.Topic())
	return notifier.NewKafkaNotifier(producer, ServiceName), publishes
}

func initServices(cfg *config.Config, notices service.Notifier) (service.Coordinator, service.QueryService) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	facilityCounters := repository.NewMongoFacilityCounterRepository(cfg)
	userQuotas := repository.NewMongoUserQuotaRepository(cfg)
	ledger := repository.NewMongoLedgerRepository(cfg)
	resolver := service.NewQuotaResolver(cfg)

	coordinator := service.NewCoordinator(
		facilityCounters,
		userQuotas,
		ledger,
		resolver,
		bookingValidator,
		notices,
		cfg,
	)
	queries := service.NewQueryService(
		facilityCounters,
		userQuotas,
		ledger,
		resolver,
		bookingValidator,
		cfg,
	)

	cfg.Log.Info("Booking services initialized", "database", cfg.MongoDatabaseName)
	return coordinator, queries
}
