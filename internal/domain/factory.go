package domain

import (
	"strings"
	"sync/atomic"
	"time"
)

// Factory выдаёт заказы с уникальными монотонными идентификаторами.
// Счётчик живёт в фабрике, а не в глобальной переменной: так тесты
// изолированы, а восстановление состояния может продвинуть счётчик
// за максимальный сохранённый id.
type Factory struct {
	lastID atomic.Int64
}

// NewFactory создаёт фабрику заказов с нулевым счётчиком.
func NewFactory() *Factory {
	return &Factory{}
}

// ParseKind сопоставляет строковый тег типу заказа без учёта регистра.
// Неизвестные теги трактуются как ToGo — документированное поведение
// импорта, а не молчаливая потеря данных.
func ParseKind(tag string) OrderKind {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "pickup":
		return KindPickup
	case "delivery":
		return KindDelivery
	default:
		return KindToGo
	}
}

// ParseStatus разбирает сохранённый статус без учёта регистра.
func ParseStatus(raw string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "incoming":
		return OrderStatusIncoming, nil
	case "started":
		return OrderStatusStarted, nil
	case "completed":
		return OrderStatusCompleted, nil
	case "cancelled":
		return OrderStatusCancelled, nil
	default:
		return "", ErrUnknownOrderStatus
	}
}

// ParseSubStatus разбирает сохранённый подстатус; пустое значение
// допустимо — Restore подставит подходящее по статусу и типу.
func ParseSubStatus(raw string) (SubStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "preparing":
		return SubStatusPreparing, nil
	case "ready":
		return SubStatusReady, nil
	case "delivering":
		return SubStatusDelivering, nil
	case "arrived":
		return SubStatusArrived, nil
	default:
		return "", ErrUnknownSubStatus
	}
}

// New создаёт новый заказ: свежий id, статус incoming, подстатус preparing.
// Позиции копируются и далее не меняются.
func (f *Factory) New(kindTag string, items []Item) *Order {
	return &Order{
		ID:        f.lastID.Add(1),
		Kind:      ParseKind(kindTag),
		Items:     append([]Item(nil), items...),
		Status:    OrderStatusIncoming,
		SubStatus: SubStatusPreparing,
		CreatedAt: time.Now(),
	}
}

// RestoredOrder описывает сохранённое состояние заказа.
type RestoredOrder struct {
	ID            int64
	Kind          string
	Status        OrderStatus
	SubStatus     SubStatus
	Items         []Item
	CreatedAt     time.Time
	ClosedAt      *time.Time
	DepartureTime *time.Time
}

// Restore восстанавливает сохранённый заказ, минуя проверку переходов:
// записанный статус уже был легально достигнут в прошлом. Идентификатор
// сохраняется как есть, а счётчик фабрики продвигается за него, поэтому
// новые заказы не конфликтуют с восстановленными.
func (f *Factory) Restore(rec RestoredOrder) *Order {
	f.advancePast(rec.ID)

	order := &Order{
		ID:            rec.ID,
		Kind:          ParseKind(rec.Kind),
		Items:         append([]Item(nil), rec.Items...),
		Status:        rec.Status,
		SubStatus:     rec.SubStatus,
		CreatedAt:     rec.CreatedAt,
		ClosedAt:      rec.ClosedAt,
		DepartureTime: rec.DepartureTime,
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.SubStatus == "" {
		if order.Status == OrderStatusCompleted {
			order.SubStatus = order.Kind.terminalSubStatus()
		} else {
			order.SubStatus = SubStatusPreparing
		}
	}
	// Снапшоты старого формата не содержат времени закрытия.
	if order.ClosedAt == nil && order.Terminal() {
		now := time.Now()
		order.ClosedAt = &now
	}

	return order
}

// advancePast продвигает счётчик id так, чтобы он был не меньше id.
func (f *Factory) advancePast(id int64) {
	for {
		current := f.lastID.Load()
		if current >= id || f.lastID.CompareAndSwap(current, id) {
			return
		}
	}
}
