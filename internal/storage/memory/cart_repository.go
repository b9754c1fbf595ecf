package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// cartRepositoryInMemory хранит корзины пользователей в памяти.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory хранилище корзин.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{items: make(map[string]domain.Cart)}
}

// Get возвращает корзину пользователя, создавая пустую при первом обращении.
func (r *cartRepositoryInMemory) Get(userID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.items[userID]
	if !ok {
		cart = domain.NewCart(userID)
		r.items[userID] = cart
	}
	return cloneCart(cart), nil
}

// Save перезаписывает корзину пользователя.
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[cart.UserID] = cloneCart(cart)
	return nil
}

// Clear опустошает корзину пользователя.
func (r *cartRepositoryInMemory) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[userID] = domain.NewCart(userID)
	return nil
}

func cloneCart(cart domain.Cart) domain.Cart {
	cp := domain.NewCart(cart.UserID)
	for id, item := range cart.Items {
		cp.Items[id] = item
	}
	return cp
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
