// Command eventlog consumes the organization events topic and writes every
// event to the structured log.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aymens/orgadmin/internal/orgadmin/config"
	"github.com/aymens/orgadmin/internal/orgadmin/events"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", filepath.Join("internal", "orgadmin", "config", "config.yaml"), "path to the YAML config file")
	groupID := flag.String("group", "orgadmin-eventlog", "Kafka consumer group")
	flag.Parse()

	logger := zap.Must(zap.NewProduction())
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS must be set")
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, *groupID, cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		logger.Info("event",
			zap.String("id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("kind", event.Kind),
			zap.Uint("entity_id", event.EntityID),
			zap.Time("occurred_at", event.OccurredAt),
			zap.Any("data", event.Data),
		)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("consuming events", zap.String("topic", cfg.Topic), zap.String("group", *groupID))
	consumer.Run(ctx)
	logger.Info("consumer stopped")
}
