package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// invoiceRepositoryInMemory хранит счета в памяти.
type invoiceRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.Invoice
	byOrder map[string]string
}

// NewInvoiceRepository возвращает in-memory хранилище счетов.
func NewInvoiceRepository() domain.InvoiceRepository {
	return &invoiceRepositoryInMemory{
		items:   make(map[string]domain.Invoice),
		byOrder: make(map[string]string),
	}
}

// Add сохраняет счёт и индексирует его по заказу.
func (r *invoiceRepositoryInMemory) Add(invoice domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byOrder[invoice.OrderID]; exists {
		return domain.ErrInvoiceAlreadyIssued
	}
	r.items[invoice.ID] = cloneInvoice(invoice)
	r.byOrder[invoice.OrderID] = invoice.ID
	return nil
}

// Get возвращает счёт или ErrInvoiceNotFound.
func (r *invoiceRepositoryInMemory) Get(id string) (domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoice, ok := r.items[id]
	if !ok {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return cloneInvoice(invoice), nil
}

// GetByOrder возвращает счёт заказа или ErrInvoiceNotFound.
func (r *invoiceRepositoryInMemory) GetByOrder(orderID string) (domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byOrder[orderID]
	if !ok {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}
	return cloneInvoice(r.items[id]), nil
}

func cloneInvoice(invoice domain.Invoice) domain.Invoice {
	cp := invoice
	cp.Lines = make([]domain.InvoiceLine, len(invoice.Lines))
	copy(cp.Lines, invoice.Lines)
	return cp
}

var _ domain.InvoiceRepository = (*invoiceRepositoryInMemory)(nil)
