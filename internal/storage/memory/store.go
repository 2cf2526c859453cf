package memory

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
	"github.com/vladislavdragonenkov/ordertrack/internal/metrics"
)

// ChangeListener вызывается после каждой фактической модификации
// коллекций. Слушатели вызываются вне мьютекса стора, поэтому из
// слушателя можно безопасно читать состояние.
type ChangeListener func()

// Store — владелец всех заказов, разбитых на четыре непересекающиеся
// коллекции по статусу. Порядок внутри коллекции — порядок поступления.
// Все мутации проходят под одним мьютексом, поэтому перемещение заказа
// между коллекциями наблюдается атомарно: заказ никогда не виден сразу
// в двух коллекциях или ни в одной.
type Store struct {
	mu        sync.Mutex
	incoming  []*domain.Order
	started   []*domain.Order
	completed []*domain.Order
	cancelled []*domain.Order

	listeners []ChangeListener

	factory *domain.Factory
	logger  *log.Entry
	metrics *metrics.StoreMetrics
}

// Option настраивает Store.
type Option func(*Store)

// WithLogger задаёт logger для стора.
func WithLogger(logger *log.Entry) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics задаёт метрики стора.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore создаёт пустой store. Фабрика нужна для восстановления
// заказов из снапшота и переиспользуется всеми источниками заказов.
func NewStore(factory *domain.Factory, options ...Option) *Store {
	s := &Store{factory: factory}
	for _, option := range options {
		option(s)
	}

	if s.logger == nil {
		s.logger = log.WithField("component", "order-store")
	}

	return s
}

// Subscribe регистрирует слушателя изменений. Поддерживается любое
// количество слушателей; каждый получает каждое уведомление.
func (s *Store) Subscribe(listener ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// AddOrder добавляет заказ в конец incoming и уведомляет слушателей.
func (s *Store) AddOrder(order *domain.Order) {
	s.mu.Lock()
	s.incoming = append(s.incoming, order)
	s.recordSizesLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordOrdersAdded(1)
	}
	s.notify()
}

// AddOrders добавляет пакет заказов одним изменением: ровно одно
// уведомление для непустого списка и ни одного для пустого, чтобы
// холостой импорт не дёргал подписчиков.
func (s *Store) AddOrders(orders []*domain.Order) {
	if len(orders) == 0 {
		return
	}

	s.mu.Lock()
	s.incoming = append(s.incoming, orders...)
	s.recordSizesLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordOrdersAdded(len(orders))
	}
	s.notify()
}

// StartOrder ищет заказ в incoming и переводит его в started.
// Отсутствие заказа — обычный результат, а не ошибка. Отказ перехода
// конвертируется в false, заказ остаётся на месте; наружу ошибка не
// пробрасывается.
func (s *Store) StartOrder(id int64) bool {
	s.mu.Lock()
	order, idx := findByID(s.incoming, id)
	if order == nil {
		s.mu.Unlock()
		s.recordTransition("start", false)
		return false
	}
	if err := order.Start(); err != nil {
		s.mu.Unlock()
		s.logger.WithField("order_id", id).WithError(err).Warn("start rejected")
		s.recordTransition("start", false)
		return false
	}
	s.incoming = removeAt(s.incoming, idx)
	s.started = append(s.started, order)
	s.recordSizesLocked()
	s.mu.Unlock()

	s.recordTransition("start", true)
	s.notify()
	return true
}

// CompleteOrder ищет заказ в started и переводит его в completed.
func (s *Store) CompleteOrder(id int64) bool {
	s.mu.Lock()
	order, idx := findByID(s.started, id)
	if order == nil {
		s.mu.Unlock()
		s.recordTransition("complete", false)
		return false
	}
	if err := order.Complete(); err != nil {
		s.mu.Unlock()
		s.logger.WithField("order_id", id).WithError(err).Warn("complete rejected")
		s.recordTransition("complete", false)
		return false
	}
	s.started = removeAt(s.started, idx)
	s.completed = append(s.completed, order)
	s.recordSizesLocked()
	s.mu.Unlock()

	s.recordTransition("complete", true)
	s.notify()
	return true
}

// CancelOrder ищет заказ сначала в incoming, затем в started, и
// переводит найденный в cancelled. Отменённые заказы не удаляются —
// это терминальные записи для аудита и отчётов.
func (s *Store) CancelOrder(id int64) bool {
	s.mu.Lock()
	from := &s.incoming
	order, idx := findByID(s.incoming, id)
	if order == nil {
		from = &s.started
		order, idx = findByID(s.started, id)
	}
	if order == nil {
		s.mu.Unlock()
		s.recordTransition("cancel", false)
		return false
	}
	if err := order.Cancel(); err != nil {
		s.mu.Unlock()
		s.logger.WithField("order_id", id).WithError(err).Warn("cancel rejected")
		s.recordTransition("cancel", false)
		return false
	}
	*from = removeAt(*from, idx)
	s.cancelled = append(s.cancelled, order)
	s.recordSizesLocked()
	s.mu.Unlock()

	s.recordTransition("cancel", true)
	s.notify()
	return true
}

// BeginDelivery отмечает выезд курьера у запущенного заказа доставки.
// Заказ остаётся в started: меняется только подстатус.
func (s *Store) BeginDelivery(id int64) bool {
	s.mu.Lock()
	order, _ := findByID(s.started, id)
	if order == nil {
		s.mu.Unlock()
		s.recordTransition("begin_delivery", false)
		return false
	}
	if err := order.BeginDelivery(); err != nil {
		s.mu.Unlock()
		s.logger.WithField("order_id", id).WithError(err).Warn("begin delivery rejected")
		s.recordTransition("begin_delivery", false)
		return false
	}
	s.mu.Unlock()

	s.recordTransition("begin_delivery", true)
	s.notify()
	return true
}

// Order возвращает копию заказа по id, просматривая коллекции в
// фиксированном порядке incoming → started → completed → cancelled.
// Побочных эффектов нет.
func (s *Store) Order(id int64) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, collection := range [][]*domain.Order{s.incoming, s.started, s.completed, s.cancelled} {
		if order, _ := findByID(collection, id); order != nil {
			return order.Clone(), true
		}
	}
	return domain.Order{}, false
}

// Incoming возвращает копию коллекции входящих заказов.
func (s *Store) Incoming() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.incoming)
}

// Started возвращает копию коллекции запущенных заказов.
func (s *Store) Started() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.started)
}

// Completed возвращает копию коллекции выполненных заказов.
func (s *Store) Completed() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.completed)
}

// Cancelled возвращает копию коллекции отменённых заказов.
func (s *Store) Cancelled() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.cancelled)
}

// AllOrders возвращает копии всех заказов в порядке
// incoming → started → completed → cancelled.
func (s *Store) AllOrders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Order, 0, len(s.incoming)+len(s.started)+len(s.completed)+len(s.cancelled))
	for _, collection := range [][]*domain.Order{s.incoming, s.started, s.completed, s.cancelled} {
		for _, order := range collection {
			all = append(all, order.Clone())
		}
	}
	return all
}

// ClearAll очищает все четыре коллекции. Административный сброс;
// на снапшот на диске не влияет.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.incoming, s.started, s.completed, s.cancelled = nil, nil, nil, nil
	s.recordSizesLocked()
	s.mu.Unlock()

	s.notify()
}

// notify рассылает уведомление всем слушателям. Список слушателей
// копируется под мьютексом, сами вызовы идут уже без него.
func (s *Store) notify() {
	s.mu.Lock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

func (s *Store) recordTransition(operation string, ok bool) {
	if s.metrics != nil {
		s.metrics.RecordTransition(operation, ok)
	}
}

// recordSizesLocked обновляет gauge размеров коллекций; вызывается под мьютексом.
func (s *Store) recordSizesLocked() {
	if s.metrics != nil {
		s.metrics.SetCollectionSizes(len(s.incoming), len(s.started), len(s.completed), len(s.cancelled))
	}
}

// findByID возвращает первый заказ с данным id и его индекс.
// Идентификаторы уникальны, поэтому поиск прекращается на первом
// совпадении.
func findByID(orders []*domain.Order, id int64) (*domain.Order, int) {
	for idx, order := range orders {
		if order.ID == id {
			return order, idx
		}
	}
	return nil, -1
}

func removeAt(orders []*domain.Order, idx int) []*domain.Order {
	return append(orders[:idx], orders[idx+1:]...)
}

func cloneAll(orders []*domain.Order) []domain.Order {
	clones := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		clones = append(clones, order.Clone())
	}
	return clones
}
