package order

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/service/billing"
	"github.com/vladislavdragonenkov/shop/internal/service/delivery"
)

const (
	// maxSaveAttempts ограничивает число повторов при конфликте версий заказа.
	maxSaveAttempts = 5
	// paymentKeyTTL — срок хранения idempotency-записи о списании.
	paymentKeyTTL = 24 * time.Hour
)

// errAlreadyPaid — внутренний сигнал: оплата уже применена, повтор не нужен.
var errAlreadyPaid = errors.New("order already paid")

// Dependencies перечисляет зависимости координатора жизненного цикла заказа.
type Dependencies struct {
	Orders    domain.OrderRepository
	Products  domain.ProductRepository
	Inventory domain.Inventory
	Carts     domain.CartRepository
	Payments  domain.PaymentRepository
	Invoices  domain.InvoiceRepository
	Users     domain.UserDirectory

	Gateway domain.PaymentGateway
	Billing *billing.Service
	Tracker *delivery.Tracker

	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository

	Metrics *metrics.OrderMetrics
	Logger  *log.Entry
}

// Coordinator управляет жизненным циклом заказа: оформление из корзины,
// оплата, отмена и backoffice-операции. Все переходы статусов идут через
// таблицу переходов домена, изменения сохраняются с optimistic locking.
type Coordinator struct {
	orders    domain.OrderRepository
	products  domain.ProductRepository
	inventory domain.Inventory
	carts     domain.CartRepository
	payments  domain.PaymentRepository
	invoices  domain.InvoiceRepository
	users     domain.UserDirectory

	gateway domain.PaymentGateway
	billing *billing.Service
	tracker *delivery.Tracker

	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	idem     domain.IdempotencyRepository

	metrics *metrics.OrderMetrics
	logger  *log.Entry
}

// NewCoordinator создаёт координатор заказов.
func NewCoordinator(deps Dependencies) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "order-coordinator")
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewOrderMetrics()
	}
	return &Coordinator{
		orders:    deps.Orders,
		products:  deps.Products,
		inventory: deps.Inventory,
		carts:     deps.Carts,
		payments:  deps.Payments,
		invoices:  deps.Invoices,
		users:     deps.Users,
		gateway:   deps.Gateway,
		billing:   deps.Billing,
		tracker:   deps.Tracker,
		outbox:    deps.Outbox,
		timeline:  deps.Timeline,
		idem:      deps.Idempotency,
		metrics:   m,
		logger:    logger,
	}
}

// Checkout оформляет заказ из корзины пользователя.
// Сток резервируется атомарно по всем позициям; позиции заказа — снимок
// имени и цены из каталога на момент оформления. Корзина очищается только
// после успешного создания заказа.
func (c *Coordinator) Checkout(userID string) (domain.Order, error) {
	userCart, err := c.carts.Get(userID)
	if err != nil {
		return domain.Order{}, err
	}
	if userCart.Empty() {
		return domain.Order{}, domain.ErrEmptyCart
	}

	items, err := c.snapshotItems(userCart)
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}

	orderID := uuid.NewString()
	if err := c.inventory.Reserve(orderID, items); err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}
	c.deactivateDepleted(items)

	now := time.Now().UTC()
	order := domain.Order{
		ID:        orderID,
		UserID:    userID,
		Items:     items,
		Status:    domain.OrderStatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.orders.Create(order); err != nil {
		// Компенсация: резерв снят, заказ не появился.
		if relErr := c.inventory.Release(orderID, items); relErr != nil {
			c.logger.WithError(relErr).WithField("order_id", orderID).
				Error("failed to release stock after create failure")
		}
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}

	if err := c.carts.Clear(userID); err != nil {
		c.logger.WithError(err).WithField("user_id", userID).Warn("failed to clear cart")
	}

	c.emitEvent(order, kafka.EventTypeOrderCreated, "")
	c.metrics.RecordCheckout()
	c.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"user_id":     userID,
		"items":       len(items),
		"total_cents": order.TotalCents(),
	}).Info("order created from cart")

	return order, nil
}

// Pay проводит оплату заказа через платёжный провайдер.
// Вызов провайдера выполняется без удержания блокировок; после возврата
// статус заказа перепроверяется заново. Повторная оплата того же заказа
// идемпотентна: сохранённый результат возвращается без нового списания.
func (c *Coordinator) Pay(ctx context.Context, userID, orderID string, card domain.CardDetails) (domain.Order, error) {
	order, err := c.loadOwned(userID, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == domain.OrderStatusPaid && order.PaymentID != "" {
		if order.InvoiceID == "" {
			// Оплата прошла, но выставление счёта ранее оборвалось — довыставляем.
			return c.ensureInvoice(order)
		}
		return order, nil
	}
	if _, err := domain.NextStatus(order.Status, domain.EventPay); err != nil {
		return domain.Order{}, err
	}

	amount := order.TotalCents()
	key := "pay:" + order.ID
	requestHash := hashPaymentRequest(order.ID, amount, card.Number)

	rec, err := c.idem.CreateProcessing(key, requestHash, time.Now().UTC().Add(paymentKeyTTL))
	switch {
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		// Отклонённая попытка не блокирует оплату другой картой.
		if rec.Status != domain.IdempotencyStatusFailed {
			return domain.Order{}, err
		}
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		switch rec.Status {
		case domain.IdempotencyStatusDone:
			// Оплата уже применена другой попыткой.
			return c.orders.Get(order.ID)
		case domain.IdempotencyStatusProcessing:
			return domain.Order{}, domain.ErrIdempotencyKeyAlreadyExists
		}
		// failed — разрешаем новую попытку списания
	case err != nil:
		return domain.Order{}, err
	}

	start := time.Now()
	result, err := c.gateway.Charge(ctx, card, amount, order.ID)
	c.metrics.RecordGatewayDuration(time.Since(start))
	if err != nil {
		// Сбой транспорта — тоже попытка оплаты, запись обязательна.
		attempt := domain.Payment{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			UserID:      userID,
			AmountCents: amount,
			Provider:    domain.PaymentProviderCard,
			CreatedAt:   time.Now().UTC(),
		}
		if addErr := c.payments.Add(attempt); addErr != nil {
			c.logger.WithError(addErr).WithField("order_id", order.ID).Error("failed to record payment attempt")
		}
		c.markIdem(key, false, []byte(err.Error()))
		c.metrics.RecordOperationFailed()
		return domain.Order{}, fmt.Errorf("charge order %s: %w", order.ID, err)
	}

	payment := domain.Payment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		UserID:      userID,
		AmountCents: amount,
		Provider:    domain.PaymentProviderCard,
		ProviderRef: result.TransactionRef,
		Succeeded:   result.Succeeded,
		CreatedAt:   time.Now().UTC(),
	}
	if addErr := c.payments.Add(payment); addErr != nil {
		c.logger.WithError(addErr).WithField("order_id", order.ID).Error("failed to record payment attempt")
	}

	if !result.Succeeded {
		c.markIdem(key, false, []byte(result.FailureReason))
		c.emitEvent(order, kafka.EventTypePaymentDeclined, result.FailureReason)
		c.metrics.RecordDeclined()
		c.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"reason":   result.FailureReason,
		}).Warn("payment declined")
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, result.FailureReason)
	}

	updated, err := c.applyPayment(order.ID, payment)
	if err != nil {
		if errors.Is(err, errAlreadyPaid) {
			c.markIdem(key, true, paymentResult(payment))
			return c.orders.Get(order.ID)
		}
		// Заказ ушёл в несовместимый статус, пока провайдер отвечал.
		// Списание компенсируется возвратом.
		if _, refErr := c.gateway.Refund(ctx, result.TransactionRef, amount); refErr != nil {
			c.logger.WithError(refErr).WithField("order_id", order.ID).
				Error("failed to refund charge after status conflict")
		}
		c.markIdem(key, false, []byte(err.Error()))
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}

	c.markIdem(key, true, paymentResult(payment))

	// Сбой биллинга после успешного списания не откатывает оплату:
	// счёт довыставится при следующем обращении к заказу.
	withInvoice, invErr := c.ensureInvoice(updated)
	if invErr != nil {
		c.logger.WithError(invErr).WithField("order_id", updated.ID).Warn("invoice issuance postponed")
	} else {
		updated = withInvoice
	}

	c.emitEvent(updated, kafka.EventTypeOrderPaid, "")
	c.metrics.RecordPaid()
	c.logger.WithFields(log.Fields{
		"order_id":     updated.ID,
		"payment_id":   payment.ID,
		"invoice_id":   updated.InvoiceID,
		"amount_cents": amount,
	}).Info("order paid")

	return updated, nil
}

// HandlePaymentNotification применяет внешнее подтверждение оплаты
// (из topic платёжных событий). Обработка идемпотентна: повторное
// уведомление по оплаченному заказу — no-op.
func (c *Coordinator) HandlePaymentNotification(ctx context.Context, orderID, providerRef string, amountCents int64) error {
	order, err := c.orders.Get(orderID)
	if err != nil {
		return err
	}
	if order.Status == domain.OrderStatusPaid {
		return nil
	}
	if _, err := domain.NextStatus(order.Status, domain.EventPay); err != nil {
		return err
	}

	if amountCents <= 0 {
		amountCents = order.TotalCents()
	}
	payment := domain.Payment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		AmountCents: amountCents,
		Provider:    domain.PaymentProviderCard,
		ProviderRef: providerRef,
		Succeeded:   true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.payments.Add(payment); err != nil {
		return err
	}

	updated, err := c.applyPayment(order.ID, payment)
	if err != nil {
		if errors.Is(err, errAlreadyPaid) {
			return nil
		}
		return err
	}

	withInvoice, invErr := c.ensureInvoice(updated)
	if invErr != nil {
		c.logger.WithError(invErr).WithField("order_id", updated.ID).Warn("invoice issuance postponed")
	} else {
		updated = withInvoice
	}

	c.emitEvent(updated, kafka.EventTypeOrderPaid, "external_confirmation")
	c.metrics.RecordPaid()
	c.logger.WithFields(log.Fields{
		"order_id":     updated.ID,
		"provider_ref": providerRef,
	}).Info("payment confirmed by external notification")

	return nil
}

// RequestCancellation отменяет заказ по запросу владельца.
// Чужой заказ неотличим от несуществующего. Зарезервированный сток
// возвращается ровно один раз.
func (c *Coordinator) RequestCancellation(userID, orderID string) (domain.Order, error) {
	if _, err := c.loadOwned(userID, orderID); err != nil {
		return domain.Order{}, err
	}

	start := time.Now()
	releaseStock := false
	updated, err := c.updateOrder(orderID, func(o *domain.Order) error {
		if err := domain.ApplyTransition(o, domain.EventCancel, time.Now().UTC()); err != nil {
			return err
		}
		releaseStock = !o.StockReleased
		o.StockReleased = true
		return nil
	})
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}
	c.metrics.RecordTransitionDuration(string(domain.EventCancel), time.Since(start))

	if releaseStock {
		if err := c.inventory.Release(updated.ID, updated.Items); err != nil {
			c.logger.WithError(err).WithField("order_id", updated.ID).Error("failed to release stock on cancel")
		}
	}

	c.emitEvent(updated, kafka.EventTypeOrderCanceled, "user_requested")
	c.metrics.RecordCancelled()
	c.logger.WithFields(log.Fields{"order_id": updated.ID, "user_id": userID}).Info("order cancelled")

	return updated, nil
}

// AdminValidate подтверждает заказ вручную (backoffice).
func (c *Coordinator) AdminValidate(adminID, orderID string) (domain.Order, error) {
	if err := c.requireAdmin(adminID); err != nil {
		return domain.Order{}, err
	}

	start := time.Now()
	updated, err := c.updateOrder(orderID, func(o *domain.Order) error {
		return domain.ApplyTransition(o, domain.EventValidate, time.Now().UTC())
	})
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}
	c.metrics.RecordTransitionDuration(string(domain.EventValidate), time.Since(start))

	c.emitEvent(updated, kafka.EventTypeOrderValidated, "")
	c.metrics.RecordValidated()
	c.logger.WithFields(log.Fields{"order_id": updated.ID, "admin_id": adminID}).Info("order validated")

	return updated, nil
}

// AdminShip отгружает оплаченный заказ: создаёт доставку по адресу владельца,
// переводит её в IN_TRANSIT с tracking-номером и ставит заказу статус SHIPPED.
func (c *Coordinator) AdminShip(adminID, orderID string) (domain.Order, error) {
	if err := c.requireAdmin(adminID); err != nil {
		return domain.Order{}, err
	}

	order, err := c.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := domain.NextStatus(order.Status, domain.EventShip); err != nil {
		return domain.Order{}, err
	}

	owner, err := c.users.Get(order.UserID)
	if err != nil {
		return domain.Order{}, err
	}
	if owner.Address == "" {
		return domain.Order{}, domain.ErrShippingAddressMissing
	}

	shipment := c.tracker.Prepare(order, owner.Address, "")
	if err := c.tracker.Ship(&shipment); err != nil {
		return domain.Order{}, err
	}

	start := time.Now()
	updated, err := c.updateOrder(orderID, func(o *domain.Order) error {
		if err := domain.ApplyTransition(o, domain.EventShip, time.Now().UTC()); err != nil {
			return err
		}
		d := shipment
		o.Delivery = &d
		return nil
	})
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}
	c.metrics.RecordTransitionDuration(string(domain.EventShip), time.Since(start))

	c.emitEvent(updated, kafka.EventTypeOrderShipped, "")
	c.metrics.RecordShipped()
	c.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"admin_id": adminID,
		"tracking": shipment.TrackingNumber,
	}).Info("order shipped")

	return updated, nil
}

// AdminMarkDelivered фиксирует доставку заказа клиенту.
func (c *Coordinator) AdminMarkDelivered(adminID, orderID string) (domain.Order, error) {
	if err := c.requireAdmin(adminID); err != nil {
		return domain.Order{}, err
	}

	start := time.Now()
	updated, err := c.updateOrder(orderID, func(o *domain.Order) error {
		if err := domain.ApplyTransition(o, domain.EventMarkDelivered, time.Now().UTC()); err != nil {
			return err
		}
		if o.Delivery == nil {
			return domain.ErrDeliveryTransition
		}
		d := *o.Delivery
		if err := c.tracker.MarkDelivered(&d); err != nil {
			return err
		}
		o.Delivery = &d
		return nil
	})
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}
	c.metrics.RecordTransitionDuration(string(domain.EventMarkDelivered), time.Since(start))

	c.emitEvent(updated, kafka.EventTypeOrderDelivered, "")
	c.metrics.RecordDelivered()
	c.logger.WithFields(log.Fields{"order_id": updated.ID, "admin_id": adminID}).Info("order delivered")

	return updated, nil
}

// AdminRefund возвращает средства по заказу. amountCents <= 0 означает
// полную сумму заказа. Требует успешного исходного платежа с provider
// reference. Сток возвращается, если не был возвращён ранее отменой.
func (c *Coordinator) AdminRefund(ctx context.Context, adminID, orderID string, amountCents int64) (domain.Order, error) {
	if err := c.requireAdmin(adminID); err != nil {
		return domain.Order{}, err
	}

	order, err := c.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := domain.NextStatus(order.Status, domain.EventRefund); err != nil {
		return domain.Order{}, err
	}

	if order.PaymentID == "" {
		return domain.Order{}, domain.ErrNoPriorPayment
	}
	payment, err := c.payments.Get(order.PaymentID)
	if err != nil {
		return domain.Order{}, err
	}
	if !payment.Succeeded || payment.ProviderRef == "" {
		return domain.Order{}, domain.ErrNoPriorPayment
	}

	amount := amountCents
	if amount <= 0 {
		amount = order.TotalCents()
	}

	start := time.Now()
	result, err := c.gateway.Refund(ctx, payment.ProviderRef, amount)
	c.metrics.RecordGatewayDuration(time.Since(start))
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, fmt.Errorf("refund order %s: %w", order.ID, err)
	}
	if !result.Succeeded {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, fmt.Errorf("refund order %s: rejected by provider", order.ID)
	}

	releaseStock := false
	updated, err := c.updateOrder(orderID, func(o *domain.Order) error {
		if err := domain.ApplyTransition(o, domain.EventRefund, time.Now().UTC()); err != nil {
			return err
		}
		releaseStock = !o.StockReleased
		o.StockReleased = true
		return nil
	})
	if err != nil {
		c.metrics.RecordOperationFailed()
		return domain.Order{}, err
	}
	c.metrics.RecordTransitionDuration(string(domain.EventRefund), time.Since(start))

	if releaseStock {
		if err := c.inventory.Release(updated.ID, updated.Items); err != nil {
			c.logger.WithError(err).WithField("order_id", updated.ID).Error("failed to release stock on refund")
		}
	}

	c.emitEvent(updated, kafka.EventTypeOrderRefunded, "")
	c.metrics.RecordRefunded()
	c.logger.WithFields(log.Fields{
		"order_id":     updated.ID,
		"admin_id":     adminID,
		"amount_cents": amount,
		"refund_ref":   result.RefundRef,
	}).Info("order refunded")

	return updated, nil
}

// GetOrder возвращает заказ владельцу.
func (c *Coordinator) GetOrder(userID, orderID string) (domain.Order, error) {
	return c.loadOwned(userID, orderID)
}

// ListOrders возвращает заказы пользователя, limit <= 0 — без ограничения.
func (c *Coordinator) ListOrders(userID string, limit int) ([]domain.Order, error) {
	return c.orders.ListByUser(userID, limit)
}

// OrderTimeline возвращает историю событий заказа.
func (c *Coordinator) OrderTimeline(orderID string) ([]domain.TimelineEvent, error) {
	return c.timeline.List(orderID)
}

// applyPayment переводит заказ в PAID и привязывает платёж.
// Если заказ уже оплачен, возвращает errAlreadyPaid.
func (c *Coordinator) applyPayment(orderID string, payment domain.Payment) (domain.Order, error) {
	start := time.Now()
	updated, err := c.updateOrder(orderID, func(o *domain.Order) error {
		if o.Status == domain.OrderStatusPaid && o.PaymentID != "" {
			return errAlreadyPaid
		}
		if err := domain.ApplyTransition(o, domain.EventPay, time.Now().UTC()); err != nil {
			return err
		}
		o.PaymentID = payment.ID
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	c.metrics.RecordTransitionDuration(string(domain.EventPay), time.Since(start))

	return updated, nil
}

// ensureInvoice выставляет счёт оплаченному заказу, если тот ещё не привязан.
// Счёт, выставленный конкурентной попыткой, привязывается повторно, так что
// после любого числа вызовов у заказа ровно один счёт.
func (c *Coordinator) ensureInvoice(order domain.Order) (domain.Order, error) {
	if order.InvoiceID != "" {
		return order, nil
	}

	invoice, err := c.billing.IssueInvoice(order)
	if err != nil {
		if !errors.Is(err, domain.ErrInvoiceAlreadyIssued) {
			return order, err
		}
		existing, getErr := c.invoices.GetByOrder(order.ID)
		if getErr != nil {
			return order, getErr
		}
		invoice = existing
	}

	return c.updateOrder(order.ID, func(o *domain.Order) error {
		o.InvoiceID = invoice.ID
		return nil
	})
}

// snapshotItems валидирует корзину по каталогу и строит снимок позиций заказа.
// Порядок позиций детерминирован (по product_id).
func (c *Coordinator) snapshotItems(userCart domain.Cart) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(userCart.Items))
	for id := range userCart.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]domain.OrderItem, 0, len(ids))
	for _, id := range ids {
		cartItem := userCart.Items[id]
		if cartItem.Qty <= 0 {
			return nil, domain.ErrQtyInvalid
		}
		product, err := c.products.Get(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, id)
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, id)
		}
		if product.StockQty < cartItem.Qty {
			return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, id)
		}
		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Qty:            cartItem.Qty,
		})
	}
	return items, nil
}

// deactivateDepleted деактивирует товары, сток которых исчерпан резервом.
func (c *Coordinator) deactivateDepleted(items []domain.OrderItem) {
	for _, item := range items {
		product, err := c.products.Get(item.ProductID)
		if err != nil {
			continue
		}
		if product.StockQty > 0 || !product.Active {
			continue
		}
		product.Active = false
		if err := c.products.Upsert(product); err != nil {
			c.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to deactivate depleted product")
		}
	}
}

// updateOrder применяет мутацию к заказу с повтором при конфликте версий.
func (c *Coordinator) updateOrder(orderID string, mutate func(*domain.Order) error) (domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		order, err := c.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if err := mutate(&order); err != nil {
			return domain.Order{}, err
		}
		if err := c.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) {
				lastErr = err
				continue
			}
			return domain.Order{}, err
		}
		order.Version++
		return order, nil
	}
	return domain.Order{}, lastErr
}

// loadOwned возвращает заказ, если он принадлежит пользователю.
// Чужой заказ неотличим от несуществующего.
func (c *Coordinator) loadOwned(userID, orderID string) (domain.Order, error) {
	order, err := c.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// requireAdmin проверяет право на backoffice-операцию.
func (c *Coordinator) requireAdmin(adminID string) error {
	admin, err := c.users.Get(adminID)
	if err != nil {
		return domain.ErrPermissionDenied
	}
	if !admin.IsAdmin {
		return domain.ErrPermissionDenied
	}
	return nil
}

// emitEvent пишет событие жизненного цикла в outbox и timeline.
// Ошибки записи логируются и не прерывают основную операцию.
func (c *Coordinator) emitEvent(order domain.Order, eventType kafka.EventType, reason string) {
	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID,
		int(order.Status), order.Status.String(), order.TotalCents(), reason)

	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.WithError(err).WithField("order_id", order.ID).Error("failed to marshal order event")
		return
	}

	if _, err := c.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Error("failed to enqueue outbox event")
	} else {
		c.metrics.RecordOutboxEvent()
	}

	if err := c.timeline.Append(domain.TimelineEvent{
		OrderID:  order.ID,
		Type:     string(eventType),
		Reason:   reason,
		Occurred: event.Timestamp,
	}); err != nil {
		c.logger.WithError(err).WithField("order_id", order.ID).Error("failed to append timeline event")
	} else {
		c.metrics.RecordTimelineEvent()
	}
}

// markIdem фиксирует результат попытки списания в idempotency-хранилище.
func (c *Coordinator) markIdem(key string, done bool, result []byte) {
	var err error
	if done {
		err = c.idem.MarkDone(key, result)
	} else {
		err = c.idem.MarkFailed(key, result)
	}
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("failed to update idempotency record")
	}
}

// hashPaymentRequest строит hash запроса на списание для idempotency-записи.
func hashPaymentRequest(orderID string, amountCents int64, cardNumber string) string {
	last4 := cardNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", orderID, amountCents, last4)))
	return hex.EncodeToString(sum[:])
}

// paymentResult сериализует итог успешного списания для idempotency-записи.
func paymentResult(payment domain.Payment) []byte {
	data, _ := json.Marshal(struct {
		PaymentID   string `json:"payment_id"`
		ProviderRef string `json:"provider_ref"`
		AmountCents int64  `json:"amount_cents"`
	}{payment.ID, payment.ProviderRef, payment.AmountCents})
	return data
}
