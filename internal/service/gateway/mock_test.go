package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestChargeSucceeds(t *testing.T) {
	g := NewMockGateway()

	result, err := g.Charge(context.Background(), domain.CardDetails{Number: "4242424242424242"}, 2000, "o-1")
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if !result.Succeeded || result.TransactionRef == "" {
		t.Fatalf("expected successful charge with ref, got %+v", result)
	}
	if g.ChargeCalls() != 1 {
		t.Fatalf("expected 1 charge call, got %d", g.ChargeCalls())
	}
}

func TestChargeDeclinedSuffix(t *testing.T) {
	g := NewMockGateway()

	result, err := g.Charge(context.Background(), domain.CardDetails{Number: "4000000000000000"}, 2000, "o-1")
	if err != nil {
		t.Fatalf("charge returned transport error: %v", err)
	}
	if result.Succeeded {
		t.Fatal("card ending in 0000 must be declined")
	}
	if result.FailureReason != "card_declined" {
		t.Fatalf("unexpected failure reason: %q", result.FailureReason)
	}
}

func TestChargeIdempotentRef(t *testing.T) {
	g := NewMockGateway()
	card := domain.CardDetails{Number: "4242424242424242"}

	first, err := g.Charge(context.Background(), card, 2000, "o-1")
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	second, err := g.Charge(context.Background(), card, 2000, "o-1")
	if err != nil {
		t.Fatalf("repeat charge failed: %v", err)
	}
	if first.TransactionRef != second.TransactionRef {
		t.Fatal("same idempotency key must return the same transaction ref")
	}

	other, err := g.Charge(context.Background(), card, 2000, "o-2")
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if other.TransactionRef == first.TransactionRef {
		t.Fatal("different keys must get different refs")
	}
}

func TestChargeTransportError(t *testing.T) {
	g := NewMockGateway()
	g.ChargeErr = errors.New("connection reset")

	if _, err := g.Charge(context.Background(), domain.CardDetails{Number: "4242"}, 100, "o-1"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestRefund(t *testing.T) {
	g := NewMockGateway()

	result, err := g.Refund(context.Background(), "tx-1", 2000)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if !result.Succeeded || result.RefundRef == "" {
		t.Fatalf("expected successful refund, got %+v", result)
	}
	if g.RefundCalls() != 1 {
		t.Fatalf("expected 1 refund call, got %d", g.RefundCalls())
	}

	g.RefundErr = errors.New("provider down")
	if _, err := g.Refund(context.Background(), "tx-1", 2000); err == nil {
		t.Fatal("expected refund error")
	}
}

func TestChargeRespectsContext(t *testing.T) {
	g := NewMockGateway()
	g.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := g.Charge(ctx, domain.CardDetails{Number: "4242"}, 100, "o-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
