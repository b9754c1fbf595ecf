package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События жизненного цикла заказа
	EventTypeOrderCreated   EventType = "order.created"
	EventTypeOrderValidated EventType = "order.validated"
	EventTypeOrderPaid      EventType = "order.paid"
	EventTypeOrderShipped   EventType = "order.shipped"
	EventTypeOrderDelivered EventType = "order.delivered"
	EventTypeOrderCanceled  EventType = "order.canceled"
	EventTypeOrderRefunded  EventType = "order.refunded"

	// События оплаты
	EventTypePaymentDeclined  EventType = "payment.declined"
	EventTypePaymentConfirmed EventType = "payment.confirmed"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "shop.order.events"
	TopicPaymentEvents   = "shop.payment.events"
	TopicDeadLetterQueue = "shop.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType  EventType `json:"event_type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     int       `json:"status"`
	StatusName string    `json:"status_name"`
	TotalCents int64     `json:"total_cents"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentEvent представляет внешнее подтверждение оплаты от провайдера.
// Приходит из topic shop.payment.events и обрабатывается consumer-ом.
type PaymentEvent struct {
	EventType   EventType `json:"event_type"`
	OrderID     string    `json:"order_id"`
	ProviderRef string    `json:"provider_ref"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, userID string, status int, statusName string, totalCents int64, reason string) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		OrderID:    orderID,
		UserID:     userID,
		Status:     status,
		StatusName: statusName,
		TotalCents: totalCents,
		Reason:     reason,
		Timestamp:  time.Now().UTC(),
	}
}
