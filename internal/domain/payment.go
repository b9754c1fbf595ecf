package domain

import "time"

// PaymentProviderCard — код карточного провайдера.
const PaymentProviderCard = "CB"

// Payment — запись о попытке оплаты заказа.
// Пишется на каждую попытку, успешную или нет: это audit trail,
// а не только отметка об успехе.
type Payment struct {
	ID          string
	OrderID     string
	UserID      string
	AmountCents int64
	Provider    string
	// ProviderRef заполняется только при успешном списании.
	ProviderRef string
	Succeeded   bool
	CreatedAt   time.Time
}

// Validate проверяет корректность полей платежа.
func (p *Payment) Validate() []error {
	var errs []error

	if p.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if p.AmountCents < 0 {
		errs = append(errs, ErrItemPriceInvalid)
	}

	return errs
}
