package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/gateway"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// Dependencies содержит зависимости сервиса.
// Корзины и справочник пользователей всегда in-memory: корзина —
// эфемерный staging до checkout, пользователи приходят из внешней системы.
type Dependencies struct {
	Orders    domain.OrderRepository
	Products  domain.ProductRepository
	Inventory domain.Inventory
	Carts     domain.CartRepository
	Payments  domain.PaymentRepository
	Invoices  domain.InvoiceRepository
	Users     *memory.UserRepository

	Gateway domain.PaymentGateway

	OutboxRepo      domain.OutboxRepository
	TimelineRepo    domain.TimelineRepository
	IdempotencyRepo domain.IdempotencyRepository

	// OutboxPublisher задаётся в тестах; в бою создаётся из Kafka producer.
	OutboxPublisher domain.OutboxPublisher

	// Ping проверяет доступность хранилища; nil для in-memory.
	Ping func() error

	Logger *log.Entry
}

// NewDependencies создаёт зависимости: при пустом PostgresDSN всё хранится
// в памяти, иначе заказы, каталог, платежи, счета, outbox, timeline и
// idempotency-записи живут в PostgreSQL.
// NOTE: платёжный провайдер — всегда mock; реальная интеграция подключается
// тем же интерфейсом domain.PaymentGateway.
func NewDependencies(cfg Config, logger *log.Entry) (*Dependencies, func(), error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Carts:   memory.NewCartRepository(),
		Users:   memory.NewUserRepository(),
		Gateway: gateway.NewMockGateway(),
		Logger:  logger,
	}
	closeFn := func() {}

	if cfg.PostgresDSN == "" {
		products := memory.NewProductRepository()
		deps.Orders = memory.NewOrderRepository()
		deps.Products = products
		deps.Inventory = products
		deps.Payments = memory.NewPaymentRepository()
		deps.Invoices = memory.NewInvoiceRepository()
		deps.OutboxRepo = memory.NewOutboxRepository()
		deps.TimelineRepo = memory.NewTimelineRepository()
		deps.IdempotencyRepo = memory.NewIdempotencyRepository()
		logger.Info("using in-memory storage")
		return deps, closeFn, nil
	}

	store, err := postgres.Open(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}

	products := postgres.NewProductRepository(store)
	deps.Orders = postgres.NewOrderRepository(store)
	deps.Products = products
	deps.Inventory = products
	deps.Payments = postgres.NewPaymentRepository(store)
	deps.Invoices = postgres.NewInvoiceRepository(store)
	deps.OutboxRepo = postgres.NewOutboxRepository(store)
	deps.TimelineRepo = postgres.NewTimelineRepository(store)
	deps.IdempotencyRepo = postgres.NewIdempotencyRepository(store)
	deps.Ping = func() error {
		return store.Ping(context.Background())
	}
	closeFn = func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}

	logger.Info("using postgres storage")
	return deps, closeFn, nil
}
