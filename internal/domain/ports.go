package domain

import (
	"context"
	"time"
)

// CardDetails — данные карты, передаваемые платёжному провайдеру.
// Ядро их не хранит.
type CardDetails struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVC      string
}

// ChargeResult — ответ провайдера на попытку списания.
type ChargeResult struct {
	Succeeded      bool
	TransactionRef string
	FailureReason  string
}

// RefundResult — ответ провайдера на возврат средств.
type RefundResult struct {
	Succeeded bool
	RefundRef string
}

// PaymentGateway — внешний платёжный провайдер.
// Вызов потенциально медленный и может падать; ядро не держит блокировок
// на время вызова и передаёт стабильный idempotency-key (id заказа),
// чтобы повторная попытка не привела к двойному списанию.
type PaymentGateway interface {
	// Charge пытается списать amountCents с карты.
	Charge(ctx context.Context, card CardDetails, amountCents int64, idempotencyKey string) (ChargeResult, error)
	// Refund возвращает amountCents по ранее успешной транзакции.
	Refund(ctx context.Context, transactionRef string, amountCents int64) (RefundResult, error)
}

// UserDirectory — внешний справочник пользователей (адрес, признак админа).
type UserDirectory interface {
	Get(userID string) (User, error)
}

// Inventory описывает складские операции над стоком каталога.
// Reserve обязан быть атомарным по всему набору позиций: либо списаны все,
// либо ни одной.
type Inventory interface {
	// Reserve списывает сток под заказ целиком (всё или ничего).
	Reserve(orderID string, items []OrderItem) error
	// Release возвращает сток по заказу; несуществующие товары молча пропускаются.
	Release(orderID string, items []OrderItem) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние попыток списания по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, result []byte) error
	MarkFailed(key string, result []byte) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
