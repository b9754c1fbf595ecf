package order

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/billing"
	"github.com/vladislavdragonenkov/shop/internal/service/delivery"
	"github.com/vladislavdragonenkov/shop/internal/service/gateway"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

const (
	okCard       = "4242424242424242"
	declinedCard = "4000000000000000"
)

type fixture struct {
	coordinator *Coordinator
	products    *memory.ProductRepository
	orders      domain.OrderRepository
	carts       domain.CartRepository
	payments    domain.PaymentRepository
	invoices    domain.InvoiceRepository
	users       *memory.UserRepository
	outbox      *memory.OutboxRepository
	timeline    domain.TimelineRepository
	idem        domain.IdempotencyRepository
	gateway     *gateway.MockGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		products: memory.NewProductRepository(),
		orders:   memory.NewOrderRepository(),
		carts:    memory.NewCartRepository(),
		payments: memory.NewPaymentRepository(),
		invoices: memory.NewInvoiceRepository(),
		users:    memory.NewUserRepository(),
		outbox:   memory.NewOutboxRepository(),
		timeline: memory.NewTimelineRepository(),
		idem:     memory.NewIdempotencyRepository(),
		gateway:  gateway.NewMockGateway(),
	}

	f.users.Add(domain.User{ID: "u-1", Email: "buyer@example.com", Address: "10 Main St"})
	f.users.Add(domain.User{ID: "u-noaddr", Email: "nomad@example.com"})
	f.users.Add(domain.User{ID: "admin", Email: "admin@example.com", Address: "HQ", IsAdmin: true})

	if err := f.products.Upsert(domain.Product{ID: "p1", Name: "Widget", PriceCents: 1000, StockQty: 10, Active: true}); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	if err := f.products.Upsert(domain.Product{ID: "p2", Name: "Gadget", PriceCents: 500, StockQty: 3, Active: true}); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	f.coordinator = NewCoordinator(Dependencies{
		Orders:      f.orders,
		Products:    f.products,
		Inventory:   f.products,
		Carts:       f.carts,
		Payments:    f.payments,
		Invoices:    f.invoices,
		Users:       f.users,
		Gateway:     f.gateway,
		Billing:     billing.NewService(f.invoices, nil),
		Tracker:     delivery.NewTracker(),
		Outbox:      f.outbox,
		Timeline:    f.timeline,
		Idempotency: f.idem,
	})
	return f
}

func (f *fixture) fillCart(t *testing.T, userID, productID string, qty int32) {
	t.Helper()

	cart, err := f.carts.Get(userID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	product, err := f.products.Get(productID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if err := cart.Add(product, qty); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}
	if err := f.carts.Save(cart); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}
}

func (f *fixture) checkout(t *testing.T, userID string) domain.Order {
	t.Helper()

	order, err := f.coordinator.Checkout(userID)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func (f *fixture) payOrder(t *testing.T, userID, orderID string) domain.Order {
	t.Helper()

	order, err := f.coordinator.Pay(context.Background(), userID, orderID, domain.CardDetails{Number: okCard})
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	return order
}

func stockOf(t *testing.T, f *fixture, productID string) int32 {
	t.Helper()

	p, err := f.products.Get(productID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	return p.StockQty
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)

	order := f.checkout(t, "u-1")

	if order.Status != domain.OrderStatusCreated {
		t.Fatalf("expected created, got %v", order.Status)
	}
	if order.TotalCents() != 2000 {
		t.Fatalf("expected total 2000, got %d", order.TotalCents())
	}
	if len(order.Items) != 1 || order.Items[0].Name != "Widget" || order.Items[0].UnitPriceCents != 1000 {
		t.Fatalf("unexpected snapshot: %+v", order.Items)
	}
	if stockOf(t, f, "p1") != 8 {
		t.Fatalf("expected stock 8, got %d", stockOf(t, f, "p1"))
	}

	cart, _ := f.carts.Get("u-1")
	if !cart.Empty() {
		t.Fatal("cart must be cleared after checkout")
	}

	pending := f.outbox.AllPending()
	if len(pending) != 1 || pending[0].EventType != "order.created" {
		t.Fatalf("expected order.created in outbox, got %+v", pending)
	}

	events, _ := f.timeline.List(order.ID)
	if len(events) != 1 || events[0].Type != "order.created" {
		t.Fatalf("expected order.created in timeline, got %+v", events)
	}
}

func TestCheckoutSnapshotIsStable(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	// Правка каталога после оформления не трогает снимок заказа
	if err := f.products.Upsert(domain.Product{ID: "p1", Name: "Widget v2", PriceCents: 9000, StockQty: 8, Active: true}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	stored, err := f.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored.TotalCents() != 2000 || stored.Items[0].Name != "Widget" {
		t.Fatalf("order snapshot changed: %+v", stored.Items)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	if _, err := f.coordinator.Checkout("u-1"); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestCheckoutInsufficientStockLeavesStockUntouched(t *testing.T) {
	f := newFixture(t)

	cart, _ := f.carts.Get("u-1")
	cart.Items["p1"] = domain.CartItem{ProductID: "p1", Qty: 2}
	cart.Items["p2"] = domain.CartItem{ProductID: "p2", Qty: 5} // сток p2 = 3
	if err := f.carts.Save(cart); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}

	if _, err := f.coordinator.Checkout("u-1"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if stockOf(t, f, "p1") != 10 || stockOf(t, f, "p2") != 3 {
		t.Fatalf("stock must be untouched: p1=%d p2=%d", stockOf(t, f, "p1"), stockOf(t, f, "p2"))
	}
}

func TestCheckoutInactiveProduct(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)

	if err := f.products.Upsert(domain.Product{ID: "p1", Name: "Widget", PriceCents: 1000, StockQty: 10, Active: false}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if _, err := f.coordinator.Checkout("u-1"); !errors.Is(err, domain.ErrProductUnavailable) {
		t.Fatalf("expected product unavailable, got %v", err)
	}
}

func TestCheckoutDeactivatesDepletedProduct(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p2", 3) // весь сток p2

	f.checkout(t, "u-1")

	p2, err := f.products.Get("p2")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if p2.StockQty != 0 {
		t.Fatalf("expected stock 0, got %d", p2.StockQty)
	}
	if p2.Active {
		t.Fatal("depleted product must be deactivated")
	}
}

func TestPay(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	paid := f.payOrder(t, "u-1", order.ID)

	if paid.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid, got %v", paid.Status)
	}
	if paid.PaymentID == "" || paid.InvoiceID == "" {
		t.Fatalf("expected payment and invoice refs, got %+v", paid)
	}
	if paid.PaidAt.IsZero() {
		t.Fatal("paid_at must be set")
	}

	payment, err := f.payments.Get(paid.PaymentID)
	if err != nil {
		t.Fatalf("payment record missing: %v", err)
	}
	if !payment.Succeeded || payment.AmountCents != 2000 || payment.ProviderRef == "" {
		t.Fatalf("unexpected payment: %+v", payment)
	}

	invoice, err := f.invoices.GetByOrder(order.ID)
	if err != nil {
		t.Fatalf("invoice missing: %v", err)
	}
	if invoice.TotalCents != 2000 {
		t.Fatalf("expected invoice total 2000, got %d", invoice.TotalCents)
	}
	if invoice.ID != paid.InvoiceID {
		t.Fatalf("order references invoice %s, repo has %s", paid.InvoiceID, invoice.ID)
	}
}

func TestPayIdempotentRepeat(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	first := f.payOrder(t, "u-1", order.ID)
	second := f.payOrder(t, "u-1", order.ID)

	if f.gateway.ChargeCalls() != 1 {
		t.Fatalf("repeat pay must not charge again, got %d calls", f.gateway.ChargeCalls())
	}
	if second.PaymentID != first.PaymentID {
		t.Fatalf("expected same payment, got %s and %s", first.PaymentID, second.PaymentID)
	}

	// Счёт остался один
	if _, err := f.invoices.GetByOrder(order.ID); err != nil {
		t.Fatalf("invoice missing: %v", err)
	}
}

// flakyInvoiceRepo отклоняет первые fail записей счёта.
type flakyInvoiceRepo struct {
	domain.InvoiceRepository
	fail int
}

func (r *flakyInvoiceRepo) Add(invoice domain.Invoice) error {
	if r.fail > 0 {
		r.fail--
		return errors.New("invoice store unavailable")
	}
	return r.InvoiceRepository.Add(invoice)
}

func TestPayRepairsInvoiceOnRetry(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyInvoiceRepo{InvoiceRepository: f.invoices, fail: 1}
	f.coordinator = NewCoordinator(Dependencies{
		Orders:      f.orders,
		Products:    f.products,
		Inventory:   f.products,
		Carts:       f.carts,
		Payments:    f.payments,
		Invoices:    flaky,
		Users:       f.users,
		Gateway:     f.gateway,
		Billing:     billing.NewService(flaky, nil),
		Tracker:     delivery.NewTracker(),
		Outbox:      f.outbox,
		Timeline:    f.timeline,
		Idempotency: f.idem,
	})

	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	// Сбой биллинга не отменяет применённую оплату
	paid, err := f.coordinator.Pay(context.Background(), "u-1", order.ID, domain.CardDetails{Number: okCard})
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid, got %v", paid.Status)
	}
	if paid.InvoiceID != "" {
		t.Fatalf("invoice must not be attached while billing is down, got %q", paid.InvoiceID)
	}
	if f.gateway.RefundCalls() != 0 {
		t.Fatalf("billing failure must not trigger a refund, got %d calls", f.gateway.RefundCalls())
	}

	// Повторный вызов не списывает повторно, но довыставляет счёт
	repaired := f.payOrder(t, "u-1", order.ID)
	if f.gateway.ChargeCalls() != 1 {
		t.Fatalf("repeat pay must not charge again, got %d calls", f.gateway.ChargeCalls())
	}
	if repaired.InvoiceID == "" {
		t.Fatal("invoice must be issued on retry")
	}

	invoice, err := f.invoices.GetByOrder(order.ID)
	if err != nil {
		t.Fatalf("invoice missing: %v", err)
	}
	if invoice.ID != repaired.InvoiceID {
		t.Fatalf("order references invoice %s, repo has %s", repaired.InvoiceID, invoice.ID)
	}
}

func TestPayDeclined(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	_, err := f.coordinator.Pay(context.Background(), "u-1", order.ID, domain.CardDetails{Number: declinedCard})
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected payment declined, got %v", err)
	}

	stored, _ := f.orders.Get(order.ID)
	if stored.Status != domain.OrderStatusCreated {
		t.Fatalf("declined payment must leave order created, got %v", stored.Status)
	}
	if stored.PaymentID != "" || stored.InvoiceID != "" {
		t.Fatal("declined payment must not attach payment or invoice")
	}

	// Отклонённая попытка остаётся в истории платежей
	attempts, err := f.payments.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", len(attempts))
	}
	if attempts[0].Succeeded {
		t.Fatalf("declined attempt must be recorded as failed: %+v", attempts[0])
	}

	// Отказ не блокирует повторную попытку с другой картой
	paid, err := f.coordinator.Pay(context.Background(), "u-1", order.ID, domain.CardDetails{Number: okCard})
	if err != nil {
		t.Fatalf("retry after decline failed: %v", err)
	}
	if paid.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid after retry, got %v", paid.Status)
	}
}

func TestPayTransportErrorAllowsRetry(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	f.gateway.ChargeErr = errors.New("connection reset")
	if _, err := f.coordinator.Pay(context.Background(), "u-1", order.ID, domain.CardDetails{Number: okCard}); err == nil {
		t.Fatal("expected transport error")
	}

	stored, _ := f.orders.Get(order.ID)
	if stored.Status != domain.OrderStatusCreated {
		t.Fatalf("expected created after transport error, got %v", stored.Status)
	}

	// Оборванное списание тоже фиксируется как неудачная попытка
	attempts, err := f.payments.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 recorded attempt, got %d", len(attempts))
	}
	if attempts[0].Succeeded || attempts[0].ProviderRef != "" {
		t.Fatalf("transport failure must be recorded as failed: %+v", attempts[0])
	}

	f.gateway.ChargeErr = nil
	paid := f.payOrder(t, "u-1", order.ID)
	if paid.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid after retry, got %v", paid.Status)
	}
}

func TestPayForeignOrderLooksMissing(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")

	_, err := f.coordinator.Pay(context.Background(), "u-noaddr", order.ID, domain.CardDetails{Number: okCard})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("foreign order must look missing, got %v", err)
	}
}

func TestPayAlreadyShippedConflict(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)
	if _, err := f.coordinator.AdminShip("admin", order.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	_, err := f.coordinator.Pay(context.Background(), "u-1", order.ID, domain.CardDetails{Number: okCard})
	if !errors.Is(err, domain.ErrOrderStatusConflict) {
		t.Fatalf("expected status conflict, got %v", err)
	}
}

func TestRequestCancellationRestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")
	if stockOf(t, f, "p1") != 8 {
		t.Fatalf("expected stock 8, got %d", stockOf(t, f, "p1"))
	}

	cancelled, err := f.coordinator.RequestCancellation("u-1", order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %v", cancelled.Status)
	}
	if !cancelled.StockReleased {
		t.Fatal("stock_released flag must be set")
	}
	if stockOf(t, f, "p1") != 10 {
		t.Fatalf("expected stock restored to 10, got %d", stockOf(t, f, "p1"))
	}

	// Повторная отмена — конфликт, сток не задвоен
	if _, err := f.coordinator.RequestCancellation("u-1", order.ID); !errors.Is(err, domain.ErrOrderStatusConflict) {
		t.Fatalf("expected conflict on repeated cancel, got %v", err)
	}
	if stockOf(t, f, "p1") != 10 {
		t.Fatalf("stock must not be released twice, got %d", stockOf(t, f, "p1"))
	}
}

func TestRequestCancellationAfterPaymentAllowsRefund(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)

	// До отгрузки оплаченный заказ ещё можно отменить
	cancelled, err := f.coordinator.RequestCancellation("u-1", order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %v", cancelled.Status)
	}
	if stockOf(t, f, "p1") != 10 {
		t.Fatalf("expected stock restored to 10, got %d", stockOf(t, f, "p1"))
	}

	// Деньги возвращаются отдельным refund, сток повторно не задваивается
	refunded, err := f.coordinator.AdminRefund(context.Background(), "admin", order.ID, 0)
	if err != nil {
		t.Fatalf("refund after cancel failed: %v", err)
	}
	if refunded.Status != domain.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %v", refunded.Status)
	}
	if f.gateway.RefundCalls() != 1 {
		t.Fatalf("expected 1 refund call, got %d", f.gateway.RefundCalls())
	}
	if stockOf(t, f, "p1") != 10 {
		t.Fatalf("stock must not be released twice, got %d", stockOf(t, f, "p1"))
	}
}

func TestRequestCancellationTooLate(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)
	if _, err := f.coordinator.AdminShip("admin", order.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	if _, err := f.coordinator.RequestCancellation("u-1", order.ID); !errors.Is(err, domain.ErrCancelTooLate) {
		t.Fatalf("expected cancel too late, got %v", err)
	}
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")

	if _, err := f.coordinator.AdminValidate("u-1", order.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, err := f.coordinator.AdminShip("unknown", order.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for unknown user, got %v", err)
	}
	if _, err := f.coordinator.AdminMarkDelivered("u-1", order.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, err := f.coordinator.AdminRefund(context.Background(), "u-1", order.ID, 0); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestAdminValidate(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")

	validated, err := f.coordinator.AdminValidate("admin", order.ID)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if validated.Status != domain.OrderStatusValidated {
		t.Fatalf("expected validated, got %v", validated.Status)
	}
	if validated.ValidatedAt.IsZero() {
		t.Fatal("validated_at must be set")
	}

	// Повторная валидация запрещена
	if _, err := f.coordinator.AdminValidate("admin", order.ID); !errors.Is(err, domain.ErrOrderStatusConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdminShip(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)

	shipped, err := f.coordinator.AdminShip("admin", order.ID)
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped, got %v", shipped.Status)
	}
	if shipped.Delivery == nil {
		t.Fatal("shipped order must carry delivery")
	}
	if shipped.Delivery.Status != domain.DeliveryStatusInTransit {
		t.Fatalf("expected in_transit, got %s", shipped.Delivery.Status)
	}
	if shipped.Delivery.TrackingNumber == "" {
		t.Fatal("tracking number must be assigned")
	}
	if shipped.Delivery.Address != "10 Main St" {
		t.Fatalf("delivery must use owner address, got %q", shipped.Delivery.Address)
	}
}

func TestAdminShipUnpaidOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")

	if _, err := f.coordinator.AdminShip("admin", order.ID); !errors.Is(err, domain.ErrOrderStatusConflict) {
		t.Fatalf("expected conflict for unpaid order, got %v", err)
	}
}

func TestAdminShipWithoutAddress(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-noaddr", "p1", 1)
	order := f.checkout(t, "u-noaddr")
	f.payOrder(t, "u-noaddr", order.ID)

	if _, err := f.coordinator.AdminShip("admin", order.ID); !errors.Is(err, domain.ErrShippingAddressMissing) {
		t.Fatalf("expected missing address error, got %v", err)
	}

	stored, _ := f.orders.Get(order.ID)
	if stored.Status != domain.OrderStatusPaid {
		t.Fatalf("failed ship must leave order paid, got %v", stored.Status)
	}
}

func TestAdminMarkDelivered(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)
	if _, err := f.coordinator.AdminShip("admin", order.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	delivered, err := f.coordinator.AdminMarkDelivered("admin", order.ID)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if delivered.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %v", delivered.Status)
	}
	if delivered.Delivery.Status != domain.DeliveryStatusDelivered {
		t.Fatalf("expected delivery delivered, got %s", delivered.Delivery.Status)
	}

	// Доставка без отгрузки невозможна
	f.fillCart(t, "u-1", "p1", 1)
	fresh := f.checkout(t, "u-1")
	if _, err := f.coordinator.AdminMarkDelivered("admin", fresh.ID); !errors.Is(err, domain.ErrOrderStatusConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdminRefund(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)
	if stockOf(t, f, "p1") != 8 {
		t.Fatalf("expected stock 8, got %d", stockOf(t, f, "p1"))
	}

	refunded, err := f.coordinator.AdminRefund(context.Background(), "admin", order.ID, 0)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.Status != domain.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %v", refunded.Status)
	}
	if f.gateway.RefundCalls() != 1 {
		t.Fatalf("expected 1 refund call, got %d", f.gateway.RefundCalls())
	}
	if stockOf(t, f, "p1") != 10 {
		t.Fatalf("expected stock restored, got %d", stockOf(t, f, "p1"))
	}

	// Из refunded пути нет
	if _, err := f.coordinator.AdminRefund(context.Background(), "admin", order.ID, 0); !errors.Is(err, domain.ErrOrderStatusConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdminRefundWithoutPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")

	// Отменённый заказ без платежа рефандить нечем
	if _, err := f.coordinator.RequestCancellation("u-1", order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := f.coordinator.AdminRefund(context.Background(), "admin", order.ID, 0); !errors.Is(err, domain.ErrNoPriorPayment) {
		t.Fatalf("expected no prior payment, got %v", err)
	}
}

func TestHandlePaymentNotification(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 2)
	order := f.checkout(t, "u-1")

	if err := f.coordinator.HandlePaymentNotification(context.Background(), order.ID, "ext-tx-1", 2000); err != nil {
		t.Fatalf("notification failed: %v", err)
	}

	stored, _ := f.orders.Get(order.ID)
	if stored.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid, got %v", stored.Status)
	}
	if stored.InvoiceID == "" {
		t.Fatal("invoice must be issued on external confirmation")
	}

	payment, err := f.payments.Get(stored.PaymentID)
	if err != nil {
		t.Fatalf("payment record missing: %v", err)
	}
	if payment.ProviderRef != "ext-tx-1" {
		t.Fatalf("unexpected provider ref: %q", payment.ProviderRef)
	}

	// Повтор — no-op
	if err := f.coordinator.HandlePaymentNotification(context.Background(), order.ID, "ext-tx-1", 2000); err != nil {
		t.Fatalf("repeated notification must be a no-op: %v", err)
	}
}

func TestGetOrderAndList(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")

	got, err := f.coordinator.GetOrder("u-1", order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("unexpected order: %s", got.ID)
	}

	if _, err := f.coordinator.GetOrder("u-noaddr", order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("foreign order must look missing, got %v", err)
	}

	orders, err := f.coordinator.ListOrders("u-1", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
}

func TestOrderTimelineCollectsLifecycle(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t, "u-1", "p1", 1)
	order := f.checkout(t, "u-1")
	f.payOrder(t, "u-1", order.ID)
	if _, err := f.coordinator.AdminShip("admin", order.ID); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if _, err := f.coordinator.AdminMarkDelivered("admin", order.ID); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	events, err := f.coordinator.OrderTimeline(order.ID)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []string{"order.created", "order.paid", "order.shipped", "order.delivered"}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}

func TestHashPaymentRequest(t *testing.T) {
	a := hashPaymentRequest("o-1", 2000, "4242424242424242")
	b := hashPaymentRequest("o-1", 2000, "1111111111114242")
	if a != b {
		t.Fatal("hash must depend only on the last four digits")
	}
	if a == hashPaymentRequest("o-1", 2001, "4242424242424242") {
		t.Fatal("hash must depend on amount")
	}
	if a == hashPaymentRequest("o-2", 2000, "4242424242424242") {
		t.Fatal("hash must depend on order id")
	}
}
