package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aymens/orgadmin/internal/orgadmin/config"
	"github.com/aymens/orgadmin/internal/orgadmin/controller"
	"github.com/aymens/orgadmin/internal/orgadmin/db"
	"github.com/aymens/orgadmin/internal/orgadmin/events"
	"github.com/aymens/orgadmin/internal/orgadmin/handlers"
	"github.com/aymens/orgadmin/internal/orgadmin/tracing"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	configPath := flag.String("config", filepath.Join("internal", "orgadmin", "config", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The logger level comes from the config, so fall back to a default one here.
		zap.Must(zap.NewProduction()).Fatal("failed to load config", zap.Error(err))
	}

	logger := initLogger(cfg.LogLevel)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, logger, cfg.OTELEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to flush traces", zap.Error(err))
		}
	}()

	repo, err := db.Connect(ctx, initDatabase(cfg), logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	producer := initProducer(ctx, cfg, logger)
	defer producer.Close()

	opts := []controller.Option{controller.WithPageLimits(cfg.DefaultPageSize, cfg.MaxPageSize)}
	companySvc := controller.NewCompanyService(repo, producer, logger, opts...)
	departmentSvc := controller.NewDepartmentService(repo, producer, logger, opts...)
	employeeSvc := controller.NewEmployeeService(repo, producer, logger, opts...)

	handler := handlers.NewHandler(companySvc, departmentSvc, employeeSvc, logger)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPGateway(
		handler,
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		}); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger at the configured level.
func initLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zap.Must(zcfg.Build())
}

// initDatabase maps the service config onto the database config.
func initDatabase(cfg *config.Config) *db.Config {
	return &db.Config{
		Driver:         cfg.DBDriver,
		DSN:            cfg.DBDSN,
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		ConnectRetries: cfg.DBConnectRetries,
	}
}

type eventProducer interface {
	Produce(events.Event)
	Close()
}

// initProducer returns a Kafka producer, or a no-op one when no brokers are configured.
func initProducer(ctx context.Context, cfg *config.Config, logger *zap.Logger) eventProducer {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("event publishing disabled: KAFKA_BROKERS not set")
		return events.NopProducer{}
	}
	producer, err := events.NewProducer(ctx, cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	return producer
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
