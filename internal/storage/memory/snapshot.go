package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
)

// ErrMalformedSnapshot сигнализирует о повреждённой записи снапшота.
// Загрузка прерывается целиком: частично восстановленное состояние
// нарушило бы инвариант «каждый заказ ровно в одной коллекции».
var ErrMalformedSnapshot = errors.New("malformed snapshot record")

// snapshotDocument — формат снапшота: один JSON-документ с четырьмя
// секциями по коллекциям. Имена секций и полей записей — стабильный
// контракт; дополнительные поля (subStatus, createdAt, closedAt,
// departureTime) делают восстановление точнее, но их отсутствие не
// ломает загрузку снапшотов старого формата.
type snapshotDocument struct {
	Incoming  []orderRecord `json:"incoming"`
	Started   []orderRecord `json:"started"`
	Completed []orderRecord `json:"completed"`
	Cancelled []orderRecord `json:"cancelled"`
}

type orderRecord struct {
	OrderID       int64        `json:"orderId"`
	OrderType     string       `json:"orderType"`
	Status        string       `json:"status"`
	SubStatus     string       `json:"subStatus,omitempty"`
	Items         []itemRecord `json:"items"`
	CreatedAt     *time.Time   `json:"createdAt,omitempty"`
	ClosedAt      *time.Time   `json:"closedAt,omitempty"`
	DepartureTime *time.Time   `json:"departureTime,omitempty"`
}

type itemRecord struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

// SaveState сериализует все четыре коллекции в один документ и целиком
// заменяет файл по пути path. Единственный пишущий процесс — мы сами,
// поэтому протокол частичной записи не нужен.
func (s *Store) SaveState(path string) error {
	s.mu.Lock()
	doc := snapshotDocument{
		Incoming:  encodeAll(s.incoming),
		Started:   encodeAll(s.started),
		Completed: encodeAll(s.completed),
		Cancelled: encodeAll(s.cancelled),
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.recordSnapshot("save", false)
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.recordSnapshot("save", false)
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.recordSnapshot("save", false)
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.recordSnapshot("save", true)
	s.logger.WithField("path", path).Info("order state saved")
	return nil
}

// LoadState восстанавливает состояние из файла снапшота. Отсутствующий
// файл — не ошибка, а первый запуск. Документ разбирается и
// валидируется целиком до подмены коллекций: при любой повреждённой
// записи текущее состояние остаётся нетронутым. По окончании загрузки
// слушатели получают одно уведомление.
func (s *Store) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.recordSnapshot("load", false)
		return fmt.Errorf("read snapshot: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc snapshotDocument
	if err := decoder.Decode(&doc); err != nil {
		s.recordSnapshot("load", false)
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	sections := []struct {
		name    string
		status  domain.OrderStatus
		records []orderRecord
	}{
		{"incoming", domain.OrderStatusIncoming, doc.Incoming},
		{"started", domain.OrderStatusStarted, doc.Started},
		{"completed", domain.OrderStatusCompleted, doc.Completed},
		{"cancelled", domain.OrderStatusCancelled, doc.Cancelled},
	}

	seen := make(map[int64]struct{})
	collections := make([][]*domain.Order, len(sections))
	for i, section := range sections {
		orders, err := s.decodeSection(section.name, section.status, section.records, seen)
		if err != nil {
			s.recordSnapshot("load", false)
			return err
		}
		collections[i] = orders
	}

	s.mu.Lock()
	s.incoming, s.started, s.completed, s.cancelled = collections[0], collections[1], collections[2], collections[3]
	s.recordSizesLocked()
	s.mu.Unlock()

	s.recordSnapshot("load", true)
	s.logger.WithFields(log.Fields{
		"path":   path,
		"orders": len(seen),
	}).Info("order state loaded")
	s.notify()
	return nil
}

func (s *Store) decodeSection(name string, want domain.OrderStatus, records []orderRecord, seen map[int64]struct{}) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0, len(records))
	for _, rec := range records {
		order, err := s.decodeRecord(rec, want)
		if err != nil {
			return nil, fmt.Errorf("%w: section %s, order %d: %v", ErrMalformedSnapshot, name, rec.OrderID, err)
		}
		if _, dup := seen[order.ID]; dup {
			return nil, fmt.Errorf("%w: section %s: duplicate order id %d", ErrMalformedSnapshot, name, order.ID)
		}
		seen[order.ID] = struct{}{}
		orders = append(orders, order)
	}
	return orders, nil
}

// decodeRecord восстанавливает заказ из записи. Статус записи обязан
// совпадать со статусом секции: запись в чужой секции — повреждение.
func (s *Store) decodeRecord(rec orderRecord, want domain.OrderStatus) (*domain.Order, error) {
	if rec.OrderID <= 0 {
		return nil, domain.ErrOrderIDInvalid
	}

	status := want
	if rec.Status != "" {
		parsed, err := domain.ParseStatus(rec.Status)
		if err != nil {
			return nil, err
		}
		if parsed != want {
			return nil, fmt.Errorf("status %q does not match its section", rec.Status)
		}
		status = parsed
	}

	subStatus, err := domain.ParseSubStatus(rec.SubStatus)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(rec.Items))
	for _, item := range rec.Items {
		price, err := decimal.NewFromString(item.Price.String())
		if err != nil {
			return nil, fmt.Errorf("item %q: bad price %q", item.Name, item.Price)
		}
		items = append(items, domain.Item{Name: item.Name, Price: price, Quantity: item.Quantity})
	}

	var createdAt time.Time
	if rec.CreatedAt != nil {
		createdAt = *rec.CreatedAt
	}

	order := s.factory.Restore(domain.RestoredOrder{
		ID:            rec.OrderID,
		Kind:          rec.OrderType,
		Status:        status,
		SubStatus:     subStatus,
		Items:         items,
		CreatedAt:     createdAt,
		ClosedAt:      rec.ClosedAt,
		DepartureTime: rec.DepartureTime,
	})

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		return nil, errs[0]
	}
	return order, nil
}

func encodeAll(orders []*domain.Order) []orderRecord {
	records := make([]orderRecord, 0, len(orders))
	for _, order := range orders {
		records = append(records, encodeOrder(order))
	}
	return records
}

func encodeOrder(order *domain.Order) orderRecord {
	items := make([]itemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemRecord{
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			Quantity: item.Quantity,
		})
	}

	rec := orderRecord{
		OrderID:       order.ID,
		OrderType:     string(order.Kind),
		Status:        string(order.Status),
		SubStatus:     string(order.SubStatus),
		Items:         items,
		ClosedAt:      order.ClosedAt,
		DepartureTime: order.DepartureTime,
	}
	if !order.CreatedAt.IsZero() {
		createdAt := order.CreatedAt
		rec.CreatedAt = &createdAt
	}
	return rec
}

func (s *Store) recordSnapshot(operation string, ok bool) {
	if s.metrics != nil {
		s.metrics.RecordSnapshot(operation, ok)
	}
}
