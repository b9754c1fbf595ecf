package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/service/idempotency"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/version"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	// MetricsAddr — адрес HTTP-сервера метрик и health-проверок.
	MetricsAddr string
	// KafkaBrokers — список брокеров через запятую; пусто — без Kafka.
	KafkaBrokers string
	// KafkaGroupID — consumer group для платёжных уведомлений.
	KafkaGroupID string
	// PostgresDSN — DSN PostgreSQL; пусто — in-memory хранилище.
	PostgresDSN string
	// OutboxPollInterval — частота опроса transactional outbox.
	OutboxPollInterval time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:        ":9090",
		KafkaGroupID:       "shop-service",
		OutboxPollInterval: time.Second,
	}
}

// ConfigFromEnv читает конфигурацию из переменных окружения поверх дефолтов.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if addr := os.Getenv("SHOP_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = brokers
	}
	if group := os.Getenv("SHOP_KAFKA_GROUP"); group != "" {
		cfg.KafkaGroupID = group
	}
	if dsn := os.Getenv("SHOP_PG_DSN"); dsn != "" {
		cfg.PostgresDSN = dsn
	}
	if interval := os.Getenv("SHOP_OUTBOX_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.OutboxPollInterval = d
		}
	}
	return cfg
}

// Run собирает зависимости и запускает сервис: воркеры outbox и очистки
// idempotency-записей, опциональный consumer платёжных уведомлений и
// HTTP-сервер метрик. Блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, closeDeps, err := NewDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	coordinator := createCoordinator(deps)

	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("continuing without kafka")
	}
	defer closeKafka(kafkaProducer, logger)

	// Outbox worker: без Kafka события остаются pending и видны в метриках.
	var publisher = deps.OutboxPublisher
	if publisher == nil && kafkaProducer != nil {
		publisher = kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
	}
	if publisher != nil {
		var workerOpts []outbox.Option
		workerOpts = append(workerOpts, outbox.WithPollInterval(cfg.OutboxPollInterval))
		if kafkaProducer != nil {
			workerOpts = append(workerOpts,
				outbox.WithDLQPublisher(kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)))
		}
		worker := outbox.NewWorker(deps.OutboxRepo, publisher, workerOpts...)
		go worker.Run(ctx)
	} else {
		logger.Info("outbox publisher is not configured, events will stay pending")
	}

	cleanup := idempotency.NewCleanupWorker(deps.IdempotencyRepo)
	go cleanup.Run(ctx)

	consumer, err := startPaymentConsumer(ctx, cfg, coordinator, kafkaProducer, logger)
	if err != nil {
		logger.WithError(err).Warn("payment notification consumer is not running")
	}

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxChecker(deps.OutboxRepo, 1000))
	if deps.Ping != nil {
		healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", deps.Ping))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	logger.Info("shop service started")
	<-ctx.Done()
	logger.Info("получен сигнал остановки, останавливаем сервис")

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop kafka consumer")
		}
	}
	shutdownHTTP(metricsSrv, logger)

	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
