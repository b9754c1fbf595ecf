package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository создаёт PostgreSQL-реализацию PaymentRepository.
// Записи о попытках оплаты append-only: и успешные, и отклонённые.
func NewPaymentRepository(store *Store) domain.PaymentRepository {
	return &paymentRepository{db: store.DB()}
}

func (r *paymentRepository) Add(payment domain.Payment) error {
	if errs := payment.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, user_id, amount_cents, provider, provider_ref, succeeded, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, payment.ID, payment.OrderID, payment.UserID, payment.AmountCents,
		payment.Provider, payment.ProviderRef, payment.Succeeded, payment.CreatedAt); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) Get(id string) (domain.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var payment domain.Payment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, user_id, amount_cents, provider, provider_ref, succeeded, created_at
		FROM payments
		WHERE id = $1
	`, id).Scan(
		&payment.ID, &payment.OrderID, &payment.UserID, &payment.AmountCents,
		&payment.Provider, &payment.ProviderRef, &payment.Succeeded, &payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("select payment: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) ListByOrder(orderID string) ([]domain.Payment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, user_id, amount_cents, provider, provider_ref, succeeded, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID, &payment.OrderID, &payment.UserID, &payment.AmountCents,
			&payment.Provider, &payment.ProviderRef, &payment.Succeeded, &payment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}

	return payments, nil
}

var _ domain.PaymentRepository = (*paymentRepository)(nil)
