package domain

// DeliveryStatus описывает под-машину состояний отгрузки.
type DeliveryStatus string

const (
	// DeliveryStatusPrepared — отгрузка подготовлена, tracking ещё не присвоен.
	DeliveryStatusPrepared DeliveryStatus = "prepared"
	// DeliveryStatusInTransit — посылка у перевозчика, tracking присвоен.
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	// DeliveryStatusDelivered — посылка вручена клиенту.
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// DefaultCarrier используется, когда перевозчик явно не задан.
const DefaultCarrier = "default"

// Delivery — отгрузка, принадлежащая ровно одному заказу.
type Delivery struct {
	ID             string
	OrderID        string
	Carrier        string
	TrackingNumber string
	Address        string
	Status         DeliveryStatus
}
