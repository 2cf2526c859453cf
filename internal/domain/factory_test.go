package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
)

func makeItems() []domain.Item {
	return []domain.Item{
		{Name: "Burger", Price: decimal.RequireFromString("8.99"), Quantity: 1},
	}
}

func TestFactoryNew_SequentialIDs(t *testing.T) {
	factory := domain.NewFactory()

	first := factory.New("togo", makeItems())
	second := factory.New("pickup", makeItems())

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.Status != domain.OrderStatusIncoming {
		t.Fatalf("status = %s, want incoming", first.Status)
	}
	if first.SubStatus != domain.SubStatusPreparing {
		t.Fatalf("subStatus = %s, want preparing", first.SubStatus)
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("createdAt must be set")
	}
}

func TestFactoryNew_CopiesItems(t *testing.T) {
	factory := domain.NewFactory()
	items := makeItems()

	order := factory.New("togo", items)
	items[0].Quantity = 42

	if order.Items[0].Quantity == 42 {
		t.Fatal("order shares items slice with the caller")
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		tag  string
		want domain.OrderKind
	}{
		{"togo", domain.KindToGo},
		{"Pickup", domain.KindPickup},
		{" DELIVERY ", domain.KindDelivery},
		// Неизвестный тег трактуется как togo, заказ не теряется.
		{"dine-in", domain.KindToGo},
		{"", domain.KindToGo},
	}

	for _, tc := range cases {
		if got := domain.ParseKind(tc.tag); got != tc.want {
			t.Fatalf("ParseKind(%q) = %s, want %s", tc.tag, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if got, err := domain.ParseStatus("Completed"); err != nil || got != domain.OrderStatusCompleted {
		t.Fatalf("ParseStatus(Completed) = %s, %v", got, err)
	}
	if _, err := domain.ParseStatus("archived"); !errors.Is(err, domain.ErrUnknownOrderStatus) {
		t.Fatalf("err = %v, want ErrUnknownOrderStatus", err)
	}
}

func TestParseSubStatus(t *testing.T) {
	if got, err := domain.ParseSubStatus(""); err != nil || got != "" {
		t.Fatalf("ParseSubStatus(empty) = %s, %v", got, err)
	}
	if got, err := domain.ParseSubStatus("Delivering"); err != nil || got != domain.SubStatusDelivering {
		t.Fatalf("ParseSubStatus(Delivering) = %s, %v", got, err)
	}
	if _, err := domain.ParseSubStatus("waiting"); !errors.Is(err, domain.ErrUnknownSubStatus) {
		t.Fatalf("err = %v, want ErrUnknownSubStatus", err)
	}
}

func TestFactoryRestore_AdvancesCounter(t *testing.T) {
	factory := domain.NewFactory()

	restored := factory.Restore(domain.RestoredOrder{
		ID:     7,
		Kind:   "delivery",
		Status: domain.OrderStatusIncoming,
		Items:  makeItems(),
	})
	if restored.ID != 7 {
		t.Fatalf("restored id = %d, want 7", restored.ID)
	}

	// Новые id начинаются после максимального восстановленного.
	next := factory.New("togo", makeItems())
	if next.ID != 8 {
		t.Fatalf("next id = %d, want 8", next.ID)
	}

	// Меньший id счётчик назад не откатывает.
	factory.Restore(domain.RestoredOrder{ID: 3, Kind: "togo", Status: domain.OrderStatusIncoming, Items: makeItems()})
	if after := factory.New("togo", makeItems()); after.ID != 9 {
		t.Fatalf("id after low restore = %d, want 9", after.ID)
	}
}

func TestFactoryRestore_Defaults(t *testing.T) {
	factory := domain.NewFactory()

	completed := factory.Restore(domain.RestoredOrder{
		ID:     1,
		Kind:   "delivery",
		Status: domain.OrderStatusCompleted,
		Items:  makeItems(),
	})
	if completed.SubStatus != domain.SubStatusArrived {
		t.Fatalf("subStatus = %s, want arrived", completed.SubStatus)
	}
	if completed.ClosedAt == nil {
		t.Fatal("terminal order must get closedAt")
	}
	if completed.CreatedAt.IsZero() {
		t.Fatal("createdAt must be filled")
	}

	incoming := factory.Restore(domain.RestoredOrder{
		ID:     2,
		Kind:   "togo",
		Status: domain.OrderStatusIncoming,
		Items:  makeItems(),
	})
	if incoming.SubStatus != domain.SubStatusPreparing {
		t.Fatalf("subStatus = %s, want preparing", incoming.SubStatus)
	}
	if incoming.ClosedAt != nil {
		t.Fatal("active order must not get closedAt")
	}
}

func TestFactoryRestore_KeepsTimestamps(t *testing.T) {
	factory := domain.NewFactory()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	closed := created.Add(30 * time.Minute)

	order := factory.Restore(domain.RestoredOrder{
		ID:        1,
		Kind:      "pickup",
		Status:    domain.OrderStatusCancelled,
		Items:     makeItems(),
		CreatedAt: created,
		ClosedAt:  &closed,
	})

	if !order.CreatedAt.Equal(created) {
		t.Fatalf("createdAt = %s, want %s", order.CreatedAt, created)
	}
	if !order.ClosedAt.Equal(closed) {
		t.Fatalf("closedAt = %s, want %s", order.ClosedAt, closed)
	}
}
