package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ProductRepository — in-memory каталог, одновременно реализующий
// domain.ProductRepository и domain.Inventory. Один mutex на каталог даёт
// атомарность многострочного резерва: конкурентные checkout-ы не могут
// оба пройти проверку стока и увести его в минус.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{items: make(map[string]domain.Product)}
}

// Upsert добавляет или обновляет товар.
func (r *ProductRepository) Upsert(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *ProductRepository) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ListActive возвращает активные товары, отсортированные по имени.
func (r *ProductRepository) ListActive() ([]domain.Product, error) {
	return r.list(func(p domain.Product) bool { return p.Active })
}

// ListAll возвращает все товары, включая деактивированные.
func (r *ProductRepository) ListAll() ([]domain.Product, error) {
	return r.list(func(domain.Product) bool { return true })
}

func (r *ProductRepository) list(keep func(domain.Product) bool) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Reserve списывает сток под все позиции заказа целиком.
// Сначала валидируются все строки, затем применяется списание — частичного
// декремента снаружи не видно никогда.
func (r *ProductRepository) Reserve(orderID string, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.Qty <= 0 {
			return domain.ErrQtyInvalid
		}
		p, ok := r.items[item.ProductID]
		if !ok {
			return domain.ErrProductUnavailable
		}
		if p.StockQty < item.Qty {
			return domain.ErrInsufficientStock
		}
	}

	for _, item := range items {
		p := r.items[item.ProductID]
		p.StockQty -= item.Qty
		r.items[item.ProductID] = p
	}

	return nil
}

// Release возвращает сток по позициям заказа.
// Исчезнувшие из каталога товары молча пропускаются: release никогда
// не изобретает данные.
func (r *ProductRepository) Release(orderID string, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		p, ok := r.items[item.ProductID]
		if !ok {
			continue
		}
		p.StockQty += item.Qty
		r.items[item.ProductID] = p
	}

	return nil
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
var _ domain.Inventory = (*ProductRepository)(nil)
