package domain

// Product — товар каталога.
// active — мерчендайзинговый флаг: сток может легально дойти до нуля,
// пока окружающая политика не деактивирует товар. Сама сущность этого
// не навязывает — решает вызывающая сторона.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	StockQty    int32
	Active      bool
}

// Validate проверяет корректность полей товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.PriceCents < 0 {
		errs = append(errs, ErrItemPriceInvalid)
	}
	if p.StockQty < 0 {
		errs = append(errs, ErrInsufficientStock)
	}

	return errs
}
