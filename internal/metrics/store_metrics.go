package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics содержит метрики хранилища заказов.
type StoreMetrics struct {
	// Счётчики операций
	ordersAdded prometheus.Counter
	transitions *prometheus.CounterVec
	snapshotOps *prometheus.CounterVec

	// Gauge по размеру каждой коллекции
	collectionSize *prometheus.GaugeVec
}

// NewStoreMetrics создаёт метрики хранилища в default-реестре.
func NewStoreMetrics() *StoreMetrics {
	return newStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		ordersAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordertrack_orders_added_total",
			Help: "Total number of orders admitted into the incoming collection",
		}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ordertrack_order_transitions_total",
			Help: "Total number of order transition attempts grouped by operation and result",
		}, []string{"operation", "result"}),
		snapshotOps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ordertrack_snapshot_operations_total",
			Help: "Total number of snapshot save/load operations grouped by result",
		}, []string{"operation", "result"}),
		collectionSize: registerGaugeVec(registerer, prometheus.GaugeOpts{
			Name: "ordertrack_orders",
			Help: "Number of orders currently held in each collection",
		}, []string{"collection"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGaugeVec(registerer prometheus.Registerer, opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	collector := prometheus.NewGaugeVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.GaugeVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrdersAdded увеличивает счётчик принятых заказов.
func (m *StoreMetrics) RecordOrdersAdded(count int) {
	m.ordersAdded.Add(float64(count))
}

// RecordTransition учитывает попытку перехода статуса и её результат.
func (m *StoreMetrics) RecordTransition(operation string, ok bool) {
	m.transitions.WithLabelValues(operation, resultLabel(ok)).Inc()
}

// RecordSnapshot учитывает операцию save/load снапшота и её результат.
func (m *StoreMetrics) RecordSnapshot(operation string, ok bool) {
	m.snapshotOps.WithLabelValues(operation, resultLabel(ok)).Inc()
}

// SetCollectionSizes обновляет gauge размеров всех четырёх коллекций.
func (m *StoreMetrics) SetCollectionSizes(incoming, started, completed, cancelled int) {
	m.collectionSize.WithLabelValues("incoming").Set(float64(incoming))
	m.collectionSize.WithLabelValues("started").Set(float64(started))
	m.collectionSize.WithLabelValues("completed").Set(float64(completed))
	m.collectionSize.WithLabelValues("cancelled").Set(float64(cancelled))
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "rejected"
}
