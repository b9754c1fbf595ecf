package domain

import "errors"

var (
	// Ошибка пустой корзины при оформлении заказа.
	ErrEmptyCart = errors.New("cart is empty")
	// Ошибка некорректного количества товара (<= 0).
	ErrQtyInvalid = errors.New("qty must be greater than zero")
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserIDRequired = errors.New("user_id is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной цены позиции.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка отсутствующего адреса доставки у владельца заказа.
	ErrShippingAddressMissing = errors.New("shipping address is unavailable")
	// Ошибка рефанда без успешного исходного платежа с provider reference.
	ErrNoPriorPayment = errors.New("no prior successful payment with provider reference")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound возвращается, если пользователь не найден в directory.
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentNotFound возвращается, если платёж не найден в репозитории.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvoiceNotFound возвращается, если счёт не найден в репозитории.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrPermissionDenied — не-админ пытается выполнить backoffice-операцию.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrOrderStatusConflict — операция не разрешена для текущего статуса заказа.
	ErrOrderStatusConflict = errors.New("operation not allowed for current order status")
	// ErrCancelTooLate — заказ уже отгружен, отмена невозможна.
	ErrCancelTooLate = errors.New("too late to cancel: order already shipped")

	// ErrInsufficientStock — на складе меньше товара, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrProductUnavailable — товар отсутствует или деактивирован.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrPaymentDeclined — платёж отклонён провайдером (бизнес-ошибка).
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrDeliveryTransition — недопустимый переход статуса доставки.
	ErrDeliveryTransition = errors.New("invalid delivery status transition")
	// ErrInvoiceAlreadyIssued — попытка выставить второй счёт по одному заказу.
	ErrInvoiceAlreadyIssued = errors.New("invoice already issued for order")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой hash запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyHashMismatch — ключ уже использован с другим запросом.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyAlreadyExists — запись по ключу уже создана.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyKeyNotFound — записи по ключу нет.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// IsNotFound проверяет, относится ли ошибка к категории "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}

// IsValidation проверяет, относится ли ошибка к некорректному вводу.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrQtyInvalid) ||
		errors.Is(err, ErrOrderIDRequired) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrItemsRequired) ||
		errors.Is(err, ErrItemPriceInvalid) ||
		errors.Is(err, ErrShippingAddressMissing) ||
		errors.Is(err, ErrNoPriorPayment)
}

// IsConflict проверяет, является ли ошибка конфликтом статуса заказа.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOrderStatusConflict) || errors.Is(err, ErrCancelTooLate)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
