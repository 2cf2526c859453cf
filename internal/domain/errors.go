package domain

import "errors"

var (
	// ErrInvalidTransition возвращается методами перехода, когда текущий
	// статус запрещает операцию. Store конвертирует эту ошибку в
	// булев результат и не пробрасывает её дальше.
	ErrInvalidTransition = errors.New("invalid order status change")
	// ErrNotDelivery — попытка отметить выезд курьера у заказа другого типа.
	ErrNotDelivery = errors.New("order is not a delivery order")
	// ErrUnknownOrderKind — тип заказа вне множества togo/pickup/delivery.
	ErrUnknownOrderKind = errors.New("unknown order kind")
	// ErrUnknownOrderStatus — статус вне множества incoming/started/completed/cancelled.
	ErrUnknownOrderStatus = errors.New("unknown order status")
	// ErrUnknownSubStatus — подстатус вне множества preparing/ready/delivering/arrived.
	ErrUnknownSubStatus = errors.New("unknown order sub-status")
	// ErrOrderIDInvalid — неположительный идентификатор заказа.
	ErrOrderIDInvalid = errors.New("order id must be positive")
	// ErrClosedAtMismatch — время закрытия не согласовано с терминальным статусом.
	ErrClosedAtMismatch = errors.New("closed_at must be set exactly for completed and cancelled orders")
	// Ошибка отсутствующего названия позиции.
	ErrItemNameRequired = errors.New("item name is required")
	// Ошибка отрицательной цены позиции.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка неположительного количества в позиции.
	ErrItemQtyInvalid = errors.New("item quantity must be positive")
)

// IsInvalidTransition проверяет, является ли ошибка отказом перехода статуса.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
