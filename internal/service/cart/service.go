package cart

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Service — операции над корзиной до оформления заказа.
type Service struct {
	carts    domain.CartRepository
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис корзины.
func NewService(carts domain.CartRepository, products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &Service{carts: carts, products: products, logger: logger}
}

// Add кладёт qty единиц товара в корзину пользователя.
// Проверка стока — pre-check по текущему каталогу; checkout перепроверит.
func (s *Service) Add(userID, productID string, qty int32) error {
	product, err := s.products.Get(productID)
	if err != nil {
		return err
	}

	userCart, err := s.carts.Get(userID)
	if err != nil {
		return err
	}
	if err := userCart.Add(product, qty); err != nil {
		return err
	}
	return s.carts.Save(userCart)
}

// Remove убирает qty единиц товара из корзины (qty <= 0 — позицию целиком).
func (s *Service) Remove(userID, productID string, qty int32) error {
	userCart, err := s.carts.Get(userID)
	if err != nil {
		return err
	}
	userCart.Remove(productID, qty)
	return s.carts.Save(userCart)
}

// View возвращает корзину пользователя.
func (s *Service) View(userID string) (domain.Cart, error) {
	return s.carts.Get(userID)
}

// TotalCents считает справочную сумму корзины по текущему каталогу.
func (s *Service) TotalCents(userID string) (int64, error) {
	userCart, err := s.carts.Get(userID)
	if err != nil {
		return 0, err
	}
	return userCart.TotalCents(s.products), nil
}
