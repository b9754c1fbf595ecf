package domain

// CartItem — позиция корзины: ссылка на товар и количество.
type CartItem struct {
	ProductID string
	Qty       int32
}

// Cart — временная корзина одного пользователя. Не является учётной записью:
// только staging-структура до оформления заказа.
type Cart struct {
	UserID string
	Items  map[string]CartItem // ключ — product_id
}

// NewCart создаёт пустую корзину пользователя.
func NewCart(userID string) Cart {
	return Cart{UserID: userID, Items: make(map[string]CartItem)}
}

// Add добавляет qty единиц товара в корзину.
// Проверка стока здесь — только pre-check: фактическое резервирование
// выполняется при checkout, который перепроверяет сток заново.
func (c *Cart) Add(product Product, qty int32) error {
	if qty <= 0 {
		return ErrQtyInvalid
	}
	if !product.Active {
		return ErrProductUnavailable
	}
	if product.StockQty < qty {
		return ErrInsufficientStock
	}

	if c.Items == nil {
		c.Items = make(map[string]CartItem)
	}
	item := c.Items[product.ID]
	item.ProductID = product.ID
	item.Qty += qty
	c.Items[product.ID] = item
	return nil
}

// Remove убирает qty единиц товара из корзины.
// qty <= 0 удаляет позицию целиком; отсутствующий товар — no-op.
func (c *Cart) Remove(productID string, qty int32) {
	item, ok := c.Items[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		delete(c.Items, productID)
		return
	}
	item.Qty -= qty
	if item.Qty <= 0 {
		delete(c.Items, productID)
		return
	}
	c.Items[productID] = item
}

// Clear опустошает корзину.
func (c *Cart) Clear() {
	c.Items = make(map[string]CartItem)
}

// Empty сообщает, пуста ли корзина.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// TotalCents считает отображаемую сумму корзины по текущему каталогу.
// Позиции с удалённым или неактивным товаром учитываются как ноль.
// Значение — справочное, для биллинга не используется.
func (c *Cart) TotalCents(products ProductRepository) int64 {
	var total int64
	for _, item := range c.Items {
		p, err := products.Get(item.ProductID)
		if err != nil || !p.Active {
			continue
		}
		total += p.PriceCents * int64(item.Qty)
	}
	return total
}
