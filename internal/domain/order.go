package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusIncoming — заказ принят, работа ещё не начата.
	OrderStatusIncoming OrderStatus = "incoming"
	// OrderStatusStarted — заказ взят в работу.
	OrderStatusStarted OrderStatus = "started"
	// OrderStatusCompleted — заказ выполнен; терминальный статус.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderKind — тип заказа; фиксируется при создании и не меняется.
type OrderKind string

const (
	KindToGo     OrderKind = "togo"
	KindPickup   OrderKind = "pickup"
	KindDelivery OrderKind = "delivery"
)

// SubStatus — этап выполнения, специфичный для типа заказа.
// ToGo и Pickup проходят preparing → ready, Delivery — preparing →
// delivering → arrived. Значения заданы общим типом, но допустимые
// переходы определяются типом заказа.
type SubStatus string

const (
	SubStatusPreparing  SubStatus = "preparing"
	SubStatusReady      SubStatus = "ready"
	SubStatusDelivering SubStatus = "delivering"
	SubStatusArrived    SubStatus = "arrived"
)

// Order агрегирует позиции и состояние жизненного цикла заказа.
// Поля мутируются только методами перехода; сериализацию доступа
// обеспечивает владелец заказа (store).
type Order struct {
	ID        int64
	Kind      OrderKind
	Items     []Item
	Status    OrderStatus
	SubStatus SubStatus
	CreatedAt time.Time
	// ClosedAt устанавливается ровно один раз — при первом переходе в
	// completed или cancelled.
	ClosedAt *time.Time
	// DepartureTime фиксирует выезд курьера; только для Delivery.
	DepartureTime *time.Time
}

// Total возвращает сумму заказа. Значение не хранится и всегда
// вычисляется заново по позициям.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Terminal сообщает, достиг ли заказ конечного статуса.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// Start переводит заказ в started. Возвращает ErrInvalidTransition,
// если заказ уже запущен или отменён.
func (o *Order) Start() error {
	if o.Status == OrderStatusStarted || o.Status == OrderStatusCancelled {
		return ErrInvalidTransition
	}

	o.Status = OrderStatusStarted
	return nil
}

// Complete завершает запущенный заказ: статус становится completed,
// фиксируется время закрытия, подстатус доводится до терминального
// значения своего типа (ready либо arrived).
func (o *Order) Complete() error {
	if o.Status != OrderStatusStarted {
		return ErrInvalidTransition
	}

	now := time.Now()
	o.Status = OrderStatusCompleted
	o.ClosedAt = &now
	o.SubStatus = o.Kind.terminalSubStatus()
	return nil
}

// Cancel отменяет заказ из любого нетерминального статуса и фиксирует
// время закрытия. Завершённый или уже отменённый заказ отменить нельзя.
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled {
		return ErrInvalidTransition
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.ClosedAt = &now
	return nil
}

// BeginDelivery отмечает выезд курьера: подстатус preparing → delivering,
// запоминается время выезда. Допустимо только для заказов Delivery.
func (o *Order) BeginDelivery() error {
	if o.Kind != KindDelivery {
		return ErrNotDelivery
	}
	if o.SubStatus != SubStatusPreparing {
		return ErrInvalidTransition
	}

	now := time.Now()
	o.SubStatus = SubStatusDelivering
	o.DepartureTime = &now
	return nil
}

// Clone возвращает независимую копию заказа для выдачи наружу.
func (o *Order) Clone() Order {
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		clone.ClosedAt = &t
	}
	if o.DepartureTime != nil {
		t := *o.DepartureTime
		clone.DepartureTime = &t
	}
	return clone
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает
// список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID <= 0 {
		errs = append(errs, ErrOrderIDInvalid)
	}

	switch o.Kind {
	case KindToGo, KindPickup, KindDelivery:
	default:
		errs = append(errs, ErrUnknownOrderKind)
	}

	for _, item := range o.Items {
		errs = append(errs, item.Validate()...)
	}

	// ClosedAt устанавливается ровно для терминальных статусов.
	if (o.ClosedAt != nil) != o.Terminal() {
		errs = append(errs, ErrClosedAtMismatch)
	}

	return errs
}

// terminalSubStatus возвращает конечный подстатус для типа заказа.
func (k OrderKind) terminalSubStatus() SubStatus {
	if k == KindDelivery {
		return SubStatusArrived
	}
	return SubStatusReady
}
