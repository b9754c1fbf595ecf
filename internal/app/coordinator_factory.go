package app

import (
	"github.com/vladislavdragonenkov/shop/internal/service/billing"
	"github.com/vladislavdragonenkov/shop/internal/service/delivery"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

// createCoordinator собирает координатор заказов из зависимостей приложения.
func createCoordinator(deps *Dependencies) *order.Coordinator {
	return order.NewCoordinator(order.Dependencies{
		Orders:      deps.Orders,
		Products:    deps.Products,
		Inventory:   deps.Inventory,
		Carts:       deps.Carts,
		Payments:    deps.Payments,
		Invoices:    deps.Invoices,
		Users:       deps.Users,
		Gateway:     deps.Gateway,
		Billing:     billing.NewService(deps.Invoices, deps.Logger.WithField("component", "billing")),
		Tracker:     delivery.NewTracker(),
		Outbox:      deps.OutboxRepo,
		Timeline:    deps.TimelineRepo,
		Idempotency: deps.IdempotencyRepo,
		Logger:      deps.Logger.WithField("component", "order-coordinator"),
	})
}
