package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type invoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository создаёт PostgreSQL-реализацию InvoiceRepository.
// Уникальный индекс по order_id гарантирует не более одного счёта на заказ
// даже при конкурентных вызовах.
func NewInvoiceRepository(store *Store) domain.InvoiceRepository {
	return &invoiceRepository{db: store.DB()}
}

func (r *invoiceRepository) Add(invoice domain.Invoice) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (id, order_id, user_id, total_cents, issued_at)
		VALUES ($1,$2,$3,$4,$5)
	`, invoice.ID, invoice.OrderID, invoice.UserID, invoice.TotalCents, invoice.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvoiceAlreadyIssued
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	for i, line := range invoice.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO invoice_lines (invoice_id, position, product_id, name, unit_price_cents, qty, line_total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, invoice.ID, i, line.ProductID, line.Name, line.UnitPriceCents, line.Qty, line.LineTotalCents); err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice: %w", err)
	}

	return nil
}

func (r *invoiceRepository) Get(id string) (domain.Invoice, error) {
	return r.getBy(`WHERE id = $1`, id)
}

func (r *invoiceRepository) GetByOrder(orderID string) (domain.Invoice, error) {
	return r.getBy(`WHERE order_id = $1`, orderID)
}

func (r *invoiceRepository) getBy(where, arg string) (domain.Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var invoice domain.Invoice
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, user_id, total_cents, issued_at
		FROM invoices `+where, arg).Scan(
		&invoice.ID, &invoice.OrderID, &invoice.UserID, &invoice.TotalCents, &invoice.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invoice{}, domain.ErrInvoiceNotFound
		}
		return domain.Invoice{}, fmt.Errorf("select invoice: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price_cents, qty, line_total_cents
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY position ASC
	`, invoice.ID)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("load invoice lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.InvoiceLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.UnitPriceCents, &line.Qty, &line.LineTotalCents); err != nil {
			return domain.Invoice{}, fmt.Errorf("scan invoice line: %w", err)
		}
		invoice.Lines = append(invoice.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Invoice{}, fmt.Errorf("iterate invoice lines: %w", err)
	}

	return invoice, nil
}

var _ domain.InvoiceRepository = (*invoiceRepository)(nil)
