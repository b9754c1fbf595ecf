package billing

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Service выставляет счета по оплаченным заказам.
type Service struct {
	invoices domain.InvoiceRepository
	logger   *log.Entry
}

// NewService создаёт биллинг-сервис.
func NewService(invoices domain.InvoiceRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "billing")
	}
	return &Service{invoices: invoices, logger: logger}
}

// IssueInvoice строит счёт по снимку позиций заказа и сохраняет его.
// На заказ выставляется не более одного счёта: повторный вызов для заказа
// с уже существующим счётом возвращает ErrInvoiceAlreadyIssued.
func (s *Service) IssueInvoice(order domain.Order) (domain.Invoice, error) {
	if order.InvoiceID != "" {
		return domain.Invoice{}, domain.ErrInvoiceAlreadyIssued
	}
	if existing, err := s.invoices.GetByOrder(order.ID); err == nil {
		s.logger.WithFields(log.Fields{
			"order_id":   order.ID,
			"invoice_id": existing.ID,
		}).Warn("invoice already issued, refusing duplicate")
		return domain.Invoice{}, domain.ErrInvoiceAlreadyIssued
	}

	lines := make([]domain.InvoiceLine, 0, len(order.Items))
	var total int64
	for _, item := range order.Items {
		lineTotal := item.UnitPriceCents * int64(item.Qty)
		lines = append(lines, domain.InvoiceLine{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			LineTotalCents: lineTotal,
		})
		total += lineTotal
	}

	invoice := domain.Invoice{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		UserID:     order.UserID,
		Lines:      lines,
		TotalCents: total,
		IssuedAt:   time.Now().UTC(),
	}

	if err := s.invoices.Add(invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"invoice_id":  invoice.ID,
		"total_cents": invoice.TotalCents,
	}).Info("invoice issued")

	return invoice, nil
}
