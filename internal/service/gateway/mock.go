package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// declinedSuffix — карты с этим окончанием всегда отклоняются (мок-провайдер).
const declinedSuffix = "0000"

// MockGateway — конфигурируемая заглушка платёжного провайдера.
// По умолчанию списание успешно для любой карты, не оканчивающейся на "0000";
// возврат успешен всегда. ChargeErr/RefundErr позволяют имитировать сетевые
// сбои, Latency — медленный удалённый вызов.
type MockGateway struct {
	ChargeErr error
	RefundErr error
	Latency   time.Duration

	mu          sync.Mutex
	chargeCalls int
	refundCalls int
	chargeRefs  map[string]string // idempotencyKey -> transactionRef
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{chargeRefs: make(map[string]string)}
}

// Charge имитирует списание. Повторный вызов с тем же idempotency-key
// возвращает уже выданный transactionRef — двойного списания нет.
func (g *MockGateway) Charge(ctx context.Context, card domain.CardDetails, amountCents int64, idempotencyKey string) (domain.ChargeResult, error) {
	if err := g.wait(ctx); err != nil {
		return domain.ChargeResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.chargeCalls++
	if g.ChargeErr != nil {
		return domain.ChargeResult{}, g.ChargeErr
	}

	if strings.HasSuffix(card.Number, declinedSuffix) {
		return domain.ChargeResult{Succeeded: false, FailureReason: "card_declined"}, nil
	}

	ref, ok := g.chargeRefs[idempotencyKey]
	if !ok {
		ref = uuid.NewString()
		g.chargeRefs[idempotencyKey] = ref
	}
	return domain.ChargeResult{Succeeded: true, TransactionRef: ref}, nil
}

// Refund имитирует возврат средств.
func (g *MockGateway) Refund(ctx context.Context, transactionRef string, amountCents int64) (domain.RefundResult, error) {
	if err := g.wait(ctx); err != nil {
		return domain.RefundResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.refundCalls++
	if g.RefundErr != nil {
		return domain.RefundResult{}, g.RefundErr
	}
	return domain.RefundResult{Succeeded: true, RefundRef: uuid.NewString()}, nil
}

// ChargeCalls возвращает число обращений к Charge.
func (g *MockGateway) ChargeCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chargeCalls
}

// RefundCalls возвращает число обращений к Refund.
func (g *MockGateway) RefundCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refundCalls
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.Latency):
		return nil
	}
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
