package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// paymentRepositoryInMemory хранит записи о платежах в памяти.
type paymentRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Payment
}

// NewPaymentRepository возвращает in-memory хранилище платежей.
func NewPaymentRepository() domain.PaymentRepository {
	return &paymentRepositoryInMemory{items: make(map[string]domain.Payment)}
}

// Add сохраняет запись о попытке оплаты.
func (r *paymentRepositoryInMemory) Add(payment domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[payment.ID] = payment
	return nil
}

// Get возвращает платёж или ErrPaymentNotFound.
func (r *paymentRepositoryInMemory) Get(id string) (domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.items[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// ListByOrder возвращает попытки оплаты заказа, старые первыми.
func (r *paymentRepositoryInMemory) ListByOrder(orderID string) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payments := make([]domain.Payment, 0)
	for _, payment := range r.items {
		if payment.OrderID == orderID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments, nil
}

var _ domain.PaymentRepository = (*paymentRepositoryInMemory)(nil)
