package delivery

import (
	"errors"
	"strings"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestPrepare(t *testing.T) {
	tracker := NewTracker()
	order := domain.Order{ID: "o-1"}

	d := tracker.Prepare(order, "10 Main St", "")
	if d.OrderID != "o-1" || d.Address != "10 Main St" {
		t.Fatalf("unexpected delivery: %+v", d)
	}
	if d.Carrier != domain.DefaultCarrier {
		t.Fatalf("expected default carrier, got %q", d.Carrier)
	}
	if d.Status != domain.DeliveryStatusPrepared {
		t.Fatalf("expected prepared, got %s", d.Status)
	}
	if d.TrackingNumber != "" {
		t.Fatal("prepared delivery must not have tracking yet")
	}

	custom := tracker.Prepare(order, "10 Main St", "dhl")
	if custom.Carrier != "dhl" {
		t.Fatalf("expected dhl, got %q", custom.Carrier)
	}
}

func TestShipAssignsTracking(t *testing.T) {
	tracker := NewTracker()
	d := tracker.Prepare(domain.Order{ID: "o-1"}, "addr", "")

	if err := tracker.Ship(&d); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if d.Status != domain.DeliveryStatusInTransit {
		t.Fatalf("expected in_transit, got %s", d.Status)
	}
	if !strings.HasPrefix(d.TrackingNumber, "TRK-") {
		t.Fatalf("unexpected tracking number: %q", d.TrackingNumber)
	}

	// Повторный ship из in_transit запрещён
	if err := tracker.Ship(&d); !errors.Is(err, domain.ErrDeliveryTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}
}

func TestShipKeepsExistingTracking(t *testing.T) {
	tracker := NewTracker()
	d := tracker.Prepare(domain.Order{ID: "o-1"}, "addr", "")
	d.TrackingNumber = "TRK-FIXED00001"

	if err := tracker.Ship(&d); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if d.TrackingNumber != "TRK-FIXED00001" {
		t.Fatalf("tracking must not be replaced, got %q", d.TrackingNumber)
	}
}

func TestMarkDelivered(t *testing.T) {
	tracker := NewTracker()
	d := tracker.Prepare(domain.Order{ID: "o-1"}, "addr", "")

	// Нельзя перепрыгнуть in_transit
	if err := tracker.MarkDelivered(&d); !errors.Is(err, domain.ErrDeliveryTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}

	if err := tracker.Ship(&d); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if err := tracker.MarkDelivered(&d); err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if d.Status != domain.DeliveryStatusDelivered {
		t.Fatalf("expected delivered, got %s", d.Status)
	}

	if err := tracker.MarkDelivered(&d); !errors.Is(err, domain.ErrDeliveryTransition) {
		t.Fatalf("delivered is final, got %v", err)
	}
}
