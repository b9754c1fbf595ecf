package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Позиции заказа и доставка хранятся в отдельных таблицах и читаются
// вместе с заказом.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
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
		INSERT INTO orders (
			id, user_id, status, invoice_id, payment_id, stock_released, version,
			created_at, validated_at, paid_at, shipped_at, delivered_at,
			cancelled_at, refunded_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		order.ID, order.UserID, int(order.Status), order.InvoiceID, order.PaymentID,
		order.StockReleased, order.Version,
		order.CreatedAt, nullTime(order.ValidatedAt), nullTime(order.PaidAt),
		nullTime(order.ShippedAt), nullTime(order.DeliveredAt),
		nullTime(order.CancelledAt), nullTime(order.RefundedAt), order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if err = insertItemsTx(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}
	if err = upsertDeliveryTx(ctx, tx, order.ID, order.Delivery); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, selectOrderSQL+` WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, err
	}

	if err := r.attachDetails(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

func (r *orderRepository) ListByUser(userID string, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := selectOrderSQL + `
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", userID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if err := r.attachDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) Save(order domain.Order) error {
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

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    invoice_id = $2,
		    payment_id = $3,
		    stock_released = $4,
		    validated_at = $5,
		    paid_at = $6,
		    shipped_at = $7,
		    delivered_at = $8,
		    cancelled_at = $9,
		    refunded_at = $10,
		    updated_at = $11,
		    version = version + 1
		WHERE id = $12
		  AND version = $13
	`,
		int(order.Status), order.InvoiceID, order.PaymentID, order.StockReleased,
		nullTime(order.ValidatedAt), nullTime(order.PaidAt), nullTime(order.ShippedAt),
		nullTime(order.DeliveredAt), nullTime(order.CancelledAt), nullTime(order.RefundedAt),
		order.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, checkErr := orderExistsTx(ctx, tx, order.ID)
		if checkErr != nil {
			err = checkErr
			return err
		}
		err = domain.ErrOrderVersionConflict
		if !exists {
			err = domain.ErrOrderNotFound
		}
		return err
	}

	if err = upsertDeliveryTx(ctx, tx, order.ID, order.Delivery); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save order: %w", err)
	}

	return nil
}

const selectOrderSQL = `
	SELECT id, user_id, status, invoice_id, payment_id, stock_released, version,
	       created_at, validated_at, paid_at, shipped_at, delivered_at,
	       cancelled_at, refunded_at, updated_at
	FROM orders
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order     domain.Order
		status    int
		validated sql.NullTime
		paid      sql.NullTime
		shipped   sql.NullTime
		delivered sql.NullTime
		cancelled sql.NullTime
		refunded  sql.NullTime
	)

	err := row.Scan(
		&order.ID, &order.UserID, &status, &order.InvoiceID, &order.PaymentID,
		&order.StockReleased, &order.Version,
		&order.CreatedAt, &validated, &paid, &shipped, &delivered,
		&cancelled, &refunded, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}

	order.Status = domain.OrderStatus(status)
	order.ValidatedAt = timeOrZero(validated)
	order.PaidAt = timeOrZero(paid)
	order.ShippedAt = timeOrZero(shipped)
	order.DeliveredAt = timeOrZero(delivered)
	order.CancelledAt = timeOrZero(cancelled)
	order.RefundedAt = timeOrZero(refunded)

	return order, nil
}

func (r *orderRepository) attachDetails(ctx context.Context, order *domain.Order) error {
	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Items = items

	delivery, err := r.loadDelivery(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Delivery = delivery

	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price_cents, qty
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPriceCents, &item.Qty); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) loadDelivery(ctx context.Context, orderID string) (*domain.Delivery, error) {
	var (
		delivery domain.Delivery
		status   string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, carrier, tracking_number, address, status
		FROM deliveries
		WHERE order_id = $1
	`, orderID).Scan(
		&delivery.ID, &delivery.OrderID, &delivery.Carrier,
		&delivery.TrackingNumber, &delivery.Address, &status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load delivery: %w", err)
	}
	delivery.Status = domain.DeliveryStatus(status)
	return &delivery, nil
}

func insertItemsTx(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, unit_price_cents, qty)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, orderID, i, item.ProductID, item.Name, item.UnitPriceCents, item.Qty); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func upsertDeliveryTx(ctx context.Context, tx *sql.Tx, orderID string, delivery *domain.Delivery) error {
	if delivery == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO deliveries (id, order_id, carrier, tracking_number, address, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (order_id) DO UPDATE
		SET tracking_number = EXCLUDED.tracking_number,
		    status = EXCLUDED.status
	`, delivery.ID, orderID, delivery.Carrier, delivery.TrackingNumber,
		delivery.Address, string(delivery.Status)); err != nil {
		return fmt.Errorf("upsert delivery: %w", err)
	}
	return nil
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func timeOrZero(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
