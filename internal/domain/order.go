package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
// Числовые коды фиксированы и используются при персистентности и в событиях,
// менять их нельзя.
type OrderStatus int

const (
	// OrderStatusCreated — заказ оформлен из корзины, сток зарезервирован.
	OrderStatusCreated OrderStatus = 1
	// OrderStatusValidated — заказ вручную подтверждён администратором.
	OrderStatusValidated OrderStatus = 2
	// OrderStatusPaid — оплата подтверждена платёжным провайдером.
	OrderStatusPaid OrderStatus = 3
	// OrderStatusShipped — заказ передан перевозчику.
	OrderStatusShipped OrderStatus = 4
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = 5
	// OrderStatusCancelled — заказ отменён до отгрузки, сток возвращён.
	OrderStatusCancelled OrderStatus = 6
	// OrderStatusRefunded — средства возвращены клиенту.
	OrderStatusRefunded OrderStatus = 7
)

// String возвращает читаемое имя статуса для логов и событий.
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusCreated:
		return "created"
	case OrderStatusValidated:
		return "validated"
	case OrderStatusPaid:
		return "paid"
	case OrderStatusShipped:
		return "shipped"
	case OrderStatusDelivered:
		return "delivered"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	return s >= OrderStatusCreated && s <= OrderStatusRefunded
}

// Terminal сообщает, является ли статус конечной «боковой веткой»:
// из cancelled возможен только refund, из refunded — ничего.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// OrderItem — снимок товара на момент оформления заказа.
// Имя и цена копируются из каталога и не меняются при последующих правках товара.
type OrderItem struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Qty            int32
}

// Order агрегирует состояние заказа, снимок позиций и отметки времени переходов.
// Каждая отметка выставляется ровно один раз — переходом, который её порождает.
type Order struct {
	ID     string
	UserID string
	Items  []OrderItem
	Status OrderStatus

	// Delivery заполняется при отгрузке и принадлежит заказу 1:1.
	Delivery *Delivery
	// InvoiceID и PaymentID — ссылки на записи в отдельных репозиториях.
	InvoiceID string
	PaymentID string

	// StockReleased не даёт вернуть сток повторно на пути cancel → refund.
	StockReleased bool

	Version int64

	CreatedAt   time.Time
	ValidatedAt time.Time
	PaidAt      time.Time
	ShippedAt   time.Time
	DeliveredAt time.Time
	CancelledAt time.Time
	RefundedAt  time.Time
	UpdatedAt   time.Time
}

// TotalCents считает сумму заказа по снимку позиций.
// Результат стабилен на всём жизненном цикле заказа независимо от каталога.
func (o *Order) TotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPriceCents * int64(item.Qty)
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrQtyInvalid)
		}
		if item.UnitPriceCents < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}
