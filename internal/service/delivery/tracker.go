package delivery

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Tracker — под-машина состояний отгрузки: PREPARED → IN_TRANSIT → DELIVERED.
// Переходы не пропускают состояния.
type Tracker struct{}

// NewTracker создаёт трекер отгрузок.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Prepare создаёт отгрузку в статусе PREPARED без tracking-номера.
func (t *Tracker) Prepare(order domain.Order, address, carrier string) domain.Delivery {
	if carrier == "" {
		carrier = domain.DefaultCarrier
	}
	return domain.Delivery{
		ID:      uuid.NewString(),
		OrderID: order.ID,
		Carrier: carrier,
		Address: address,
		Status:  domain.DeliveryStatusPrepared,
	}
}

// Ship переводит отгрузку в IN_TRANSIT и присваивает tracking-номер,
// если его ещё нет.
func (t *Tracker) Ship(delivery *domain.Delivery) error {
	if delivery.Status != domain.DeliveryStatusPrepared {
		return domain.ErrDeliveryTransition
	}
	delivery.Status = domain.DeliveryStatusInTransit
	if delivery.TrackingNumber == "" {
		delivery.TrackingNumber = newTrackingNumber()
	}
	return nil
}

// MarkDelivered переводит отгрузку в DELIVERED.
func (t *Tracker) MarkDelivered(delivery *domain.Delivery) error {
	if delivery.Status != domain.DeliveryStatusInTransit {
		return domain.ErrDeliveryTransition
	}
	delivery.Status = domain.DeliveryStatusDelivered
	return nil
}

// newTrackingNumber генерирует номер вида TRK-XXXXXXXXXX.
func newTrackingNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TRK-%s", hex[:10])
}
