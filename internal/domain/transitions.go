package domain

import "time"

// OrderEvent — событие, переводящее заказ в новый статус.
type OrderEvent string

const (
	EventValidate      OrderEvent = "validate"
	EventPay           OrderEvent = "pay"
	EventShip          OrderEvent = "ship"
	EventMarkDelivered OrderEvent = "mark_delivered"
	EventCancel        OrderEvent = "cancel"
	EventRefund        OrderEvent = "refund"
)

// transition описывает одну строку таблицы переходов: из каких статусов
// событие разрешено и куда оно ведёт.
type transition struct {
	from []OrderStatus
	to   OrderStatus
}

// transitions — единая таблица статусной машины заказа.
// Вся логика "можно ли" живёт здесь, а не в разрозненных проверках по методам.
var transitions = map[OrderEvent]transition{
	EventValidate:      {from: []OrderStatus{OrderStatusCreated}, to: OrderStatusValidated},
	EventPay:           {from: []OrderStatus{OrderStatusCreated, OrderStatusValidated}, to: OrderStatusPaid},
	EventShip:          {from: []OrderStatus{OrderStatusPaid}, to: OrderStatusShipped},
	EventMarkDelivered: {from: []OrderStatus{OrderStatusShipped}, to: OrderStatusDelivered},
	EventCancel:        {from: []OrderStatus{OrderStatusCreated, OrderStatusValidated, OrderStatusPaid}, to: OrderStatusCancelled},
	EventRefund:        {from: []OrderStatus{OrderStatusPaid, OrderStatusCancelled}, to: OrderStatusRefunded},
}

// CanTransition сообщает, разрешено ли событие для текущего статуса.
func CanTransition(current OrderStatus, event OrderEvent) bool {
	t, ok := transitions[event]
	if !ok {
		return false
	}
	for _, s := range t.from {
		if s == current {
			return true
		}
	}
	return false
}

// NextStatus возвращает целевой статус события или ошибку конфликта,
// если событие не разрешено из текущего статуса.
func NextStatus(current OrderStatus, event OrderEvent) (OrderStatus, error) {
	if !CanTransition(current, event) {
		if event == EventCancel && (current == OrderStatusShipped || current == OrderStatusDelivered) {
			return current, ErrCancelTooLate
		}
		return current, ErrOrderStatusConflict
	}
	return transitions[event].to, nil
}

// ApplyTransition проверяет guard, меняет статус заказа и ставит отметку
// времени перехода. Отметка выставляется ровно один раз.
func ApplyTransition(o *Order, event OrderEvent, now time.Time) error {
	next, err := NextStatus(o.Status, event)
	if err != nil {
		return err
	}

	o.Status = next
	o.UpdatedAt = now

	switch next {
	case OrderStatusValidated:
		if o.ValidatedAt.IsZero() {
			o.ValidatedAt = now
		}
	case OrderStatusPaid:
		if o.PaidAt.IsZero() {
			o.PaidAt = now
		}
	case OrderStatusShipped:
		if o.ShippedAt.IsZero() {
			o.ShippedAt = now
		}
	case OrderStatusDelivered:
		if o.DeliveredAt.IsZero() {
			o.DeliveredAt = now
		}
	case OrderStatusCancelled:
		if o.CancelledAt.IsZero() {
			o.CancelledAt = now
		}
	case OrderStatusRefunded:
		if o.RefundedAt.IsZero() {
			o.RefundedAt = now
		}
	}

	return nil
}
