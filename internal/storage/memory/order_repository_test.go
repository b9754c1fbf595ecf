package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestOrderRepositoryCreateAndGet(t *testing.T) {
	repo := NewOrderRepository()

	order := domain.Order{
		ID:     "o-1",
		UserID: "u-1",
		Status: domain.OrderStatusCreated,
		Items:  []domain.OrderItem{{ProductID: "p1", Name: "Widget", UnitPriceCents: 1000, Qty: 2}},
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.Create(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}

	got, err := repo.Get("o-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TotalCents() != 2000 {
		t.Fatalf("expected total 2000, got %d", got.TotalCents())
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderRepositorySaveVersionConflict(t *testing.T) {
	repo := NewOrderRepository()

	order := domain.Order{ID: "o-1", UserID: "u-1", Status: domain.OrderStatusCreated}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Первое сохранение с актуальной версией проходит
	order.Status = domain.OrderStatusValidated
	if err := repo.Save(order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Повтор со старой версией — конфликт
	if err := repo.Save(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	stored, err := repo.Get("o-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("expected stored version 1, got %d", stored.Version)
	}
	if stored.Status != domain.OrderStatusValidated {
		t.Fatalf("expected validated, got %v", stored.Status)
	}

	if err := repo.Save(domain.Order{ID: "missing"}); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected not found on save, got %v", err)
	}
}

func TestOrderRepositoryListByUser(t *testing.T) {
	repo := NewOrderRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"o-1", "o-2", "o-3"} {
		order := domain.Order{
			ID:        id,
			UserID:    "u-1",
			Status:    domain.OrderStatusCreated,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(order); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	if err := repo.Create(domain.Order{ID: "o-other", UserID: "u-2", CreatedAt: base}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	orders, err := repo.ListByUser("u-1", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	// Свежие заказы идут первыми
	if orders[0].ID != "o-3" || orders[2].ID != "o-1" {
		t.Fatalf("unexpected order: %s, %s, %s", orders[0].ID, orders[1].ID, orders[2].ID)
	}

	limited, err := repo.ListByUser("u-1", 2)
	if err != nil {
		t.Fatalf("list with limit failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(limited))
	}
}

func TestOrderRepositoryCloneIsolation(t *testing.T) {
	repo := NewOrderRepository()

	order := domain.Order{
		ID:       "o-1",
		UserID:   "u-1",
		Status:   domain.OrderStatusShipped,
		Items:    []domain.OrderItem{{ProductID: "p1", Qty: 1}},
		Delivery: &domain.Delivery{ID: "d-1", OrderID: "o-1", Status: domain.DeliveryStatusInTransit},
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.Get("o-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	got.Items[0].Qty = 99
	got.Delivery.Status = domain.DeliveryStatusDelivered

	fresh, err := repo.Get("o-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fresh.Items[0].Qty != 1 {
		t.Fatal("stored items must not be affected by external mutation")
	}
	if fresh.Delivery.Status != domain.DeliveryStatusInTransit {
		t.Fatal("stored delivery must not be affected by external mutation")
	}
}
