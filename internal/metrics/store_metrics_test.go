package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewStoreMetrics(t *testing.T) {
	metrics := newStoreMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newStoreMetricsWithRegisterer should not return nil")
	}
	if metrics.ordersAdded == nil {
		t.Error("ordersAdded counter should not be nil")
	}
	if metrics.transitions == nil {
		t.Error("transitions counter vec should not be nil")
	}
	if metrics.snapshotOps == nil {
		t.Error("snapshotOps counter vec should not be nil")
	}
	if metrics.collectionSize == nil {
		t.Error("collectionSize gauge vec should not be nil")
	}
}

func TestNewStoreMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newStoreMetricsWithRegisterer(reg)
	// Повторная регистрация переиспользует уже созданные коллекторы.
	second := newStoreMetricsWithRegisterer(reg)

	first.RecordOrdersAdded(2)
	second.RecordOrdersAdded(3)

	if got := counterValue(t, first.ordersAdded); got != 5.0 {
		t.Errorf("expected shared counter value 5.0, got %f", got)
	}
}

func TestRecordTransition(t *testing.T) {
	metrics := newStoreMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordTransition("start", true)
	metrics.RecordTransition("start", true)
	metrics.RecordTransition("start", false)

	ok := metrics.transitions.WithLabelValues("start", "ok")
	if got := counterValue(t, ok); got != 2.0 {
		t.Errorf("expected ok counter 2.0, got %f", got)
	}

	rejected := metrics.transitions.WithLabelValues("start", "rejected")
	if got := counterValue(t, rejected); got != 1.0 {
		t.Errorf("expected rejected counter 1.0, got %f", got)
	}
}

func TestRecordSnapshot(t *testing.T) {
	metrics := newStoreMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordSnapshot("save", true)
	metrics.RecordSnapshot("load", false)

	save := metrics.snapshotOps.WithLabelValues("save", "ok")
	if got := counterValue(t, save); got != 1.0 {
		t.Errorf("expected save counter 1.0, got %f", got)
	}

	load := metrics.snapshotOps.WithLabelValues("load", "rejected")
	if got := counterValue(t, load); got != 1.0 {
		t.Errorf("expected load counter 1.0, got %f", got)
	}
}

func TestSetCollectionSizes(t *testing.T) {
	metrics := newStoreMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.SetCollectionSizes(3, 2, 1, 0)

	cases := map[string]float64{
		"incoming":  3,
		"started":   2,
		"completed": 1,
		"cancelled": 0,
	}
	for collection, want := range cases {
		gauge := metrics.collectionSize.WithLabelValues(collection)
		m := &dto.Metric{}
		if err := gauge.Write(m); err != nil {
			t.Fatalf("failed to write gauge: %v", err)
		}
		if m.Gauge.GetValue() != want {
			t.Errorf("collection %s: expected %f, got %f", collection, want, m.Gauge.GetValue())
		}
	}
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}
