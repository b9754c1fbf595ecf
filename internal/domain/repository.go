package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя с опциональным ограничением на количество.
	ListByUser(userID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// ProductRepository описывает каталог товаров.
// Товары не удаляются — только деактивируются.
type ProductRepository interface {
	// Upsert добавляет или обновляет товар.
	Upsert(product Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	// ListActive возвращает только активные товары.
	ListActive() ([]Product, error)
	// ListAll возвращает все товары, включая деактивированные.
	ListAll() ([]Product, error)
}

// CartRepository хранит корзины пользователей.
// Корзина создаётся неявно при первом обращении.
type CartRepository interface {
	// Get возвращает корзину пользователя, создавая пустую при необходимости.
	Get(userID string) (Cart, error)
	// Save перезаписывает корзину пользователя.
	Save(cart Cart) error
	// Clear опустошает корзину пользователя.
	Clear(userID string) error
}

// PaymentRepository хранит записи о попытках оплаты.
type PaymentRepository interface {
	Add(payment Payment) error
	Get(id string) (Payment, error)
	// ListByOrder возвращает все попытки оплаты заказа, старые первыми.
	ListByOrder(orderID string) ([]Payment, error)
}

// InvoiceRepository хранит выставленные счета.
type InvoiceRepository interface {
	Add(invoice Invoice) error
	Get(id string) (Invoice, error)
	// GetByOrder возвращает счёт заказа или ErrInvoiceNotFound.
	GetByOrder(orderID string) (Invoice, error)
}
