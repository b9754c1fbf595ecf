package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ProductRepository — PostgreSQL-реализация каталога товаров.
// Репозиторий одновременно реализует Inventory: резерв стока выполняется
// одной транзакцией по всем позициям, частичного списания не бывает.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт репозиторий каталога поверх Store.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{db: store.DB()}
}

func (r *ProductRepository) Upsert(product domain.Product) error {
	if errs := product.Validate(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price_cents, stock_qty, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price_cents = EXCLUDED.price_cents,
		    stock_qty = EXCLUDED.stock_qty,
		    active = EXCLUDED.active,
		    updated_at = EXCLUDED.updated_at
	`, product.ID, product.Name, product.Description, product.PriceCents,
		product.StockQty, product.Active, now); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

func (r *ProductRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price_cents, stock_qty, active
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Description,
		&product.PriceCents, &product.StockQty, &product.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *ProductRepository) ListActive() ([]domain.Product, error) {
	return r.list(`WHERE active ORDER BY name, id`)
}

func (r *ProductRepository) ListAll() ([]domain.Product, error) {
	return r.list(`ORDER BY name, id`)
}

func (r *ProductRepository) list(tail string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price_cents, stock_qty, active
		FROM products `+tail)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description,
			&product.PriceCents, &product.StockQty, &product.Active,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// Reserve списывает сток под заказ целиком. Строки товаров блокируются
// FOR UPDATE, при любой непроходящей позиции транзакция откатывается.
func (r *ProductRepository) Reserve(orderID string, items []domain.OrderItem) error {
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

	for _, item := range items {
		if item.Qty <= 0 {
			err = domain.ErrQtyInvalid
			return err
		}

		var (
			stock  int32
			active bool
		)
		scanErr := tx.QueryRowContext(ctx, `
			SELECT stock_qty, active FROM products WHERE id = $1 FOR UPDATE
		`, item.ProductID).Scan(&stock, &active)
		if scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				err = fmt.Errorf("%w: %s", domain.ErrProductUnavailable, item.ProductID)
				return err
			}
			err = fmt.Errorf("lock product %s: %w", item.ProductID, scanErr)
			return err
		}
		if !active {
			err = fmt.Errorf("%w: %s", domain.ErrProductUnavailable, item.ProductID)
			return err
		}
		if stock < item.Qty {
			err = fmt.Errorf("%w: %s", domain.ErrInsufficientStock, item.ProductID)
			return err
		}

		if _, execErr := tx.ExecContext(ctx, `
			UPDATE products SET stock_qty = stock_qty - $2, updated_at = NOW() WHERE id = $1
		`, item.ProductID, item.Qty); execErr != nil {
			err = fmt.Errorf("reserve product %s: %w", item.ProductID, execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve for order %s: %w", orderID, err)
	}

	return nil
}

// Release возвращает сток по заказу. Удалённые из каталога товары
// пропускаются молча.
func (r *ProductRepository) Release(orderID string, items []domain.OrderItem) error {
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

	for _, item := range items {
		if item.Qty <= 0 {
			continue
		}
		if _, execErr := tx.ExecContext(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2, updated_at = NOW() WHERE id = $1
		`, item.ProductID, item.Qty); execErr != nil {
			err = fmt.Errorf("release product %s: %w", item.ProductID, execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit release for order %s: %w", orderID, err)
	}

	return nil
}

var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.Inventory         = (*ProductRepository)(nil)
)
