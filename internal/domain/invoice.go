package domain

import "time"

// InvoiceLine — строка счёта, производная от позиции заказа.
type InvoiceLine struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Qty            int32
	LineTotalCents int64
}

// Invoice — неизменяемый счёт по заказу.
// На заказ выставляется не более одного счёта — в момент первого
// успешного платежа.
type Invoice struct {
	ID         string
	OrderID    string
	UserID     string
	Lines      []InvoiceLine
	TotalCents int64
	IssuedAt   time.Time
}
