package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
)

const (
	defaultPollInterval = time.Second
	defaultDataDir      = "data"
)

var (
	ingestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordertrack_ingest_runs_total",
		Help: "Total number of ingestion poll cycles grouped by result.",
	}, []string{"result"})
	ingestFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordertrack_ingest_files_total",
		Help: "Total number of processed order files grouped by result.",
	}, []string{"result"})
	ingestOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordertrack_ingest_orders_total",
		Help: "Total number of orders admitted from ingested files.",
	})
)

// OrderSink принимает пакет новых заказов; реализуется хранилищем.
type OrderSink interface {
	AddOrders(orders []*domain.Order)
}

// Options задаёт параметры воркера опроса каталога заказов.
type Options struct {
	Logger   *log.Entry
	Interval time.Duration
	Dir      string
}

// Option настраивает Worker.
type Option func(*Options)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между циклами опроса.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithDir задаёт каталог, в который внешние системы кладут файлы заказов.
func WithDir(dir string) Option {
	return func(opts *Options) {
		opts.Dir = dir
	}
}

// Worker периодически опрашивает каталог внешних заказов и передаёт
// разобранные заказы в store одним пакетом через его публичный API —
// под тем же мьютексом, что и действия пользователя. Файл удаляется
// только после успешного разбора; повреждённые файлы остаются на месте
// для ручного разбора и не валят процесс.
type Worker struct {
	sink     OrderSink
	factory  *domain.Factory
	logger   *log.Entry
	interval time.Duration
	dir      string
}

// NewWorker создаёт воркер импорта заказов.
func NewWorker(sink OrderSink, factory *domain.Factory, options ...Option) *Worker {
	opts := Options{
		Interval: defaultPollInterval,
		Dir:      defaultDataDir,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "ingest-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultPollInterval
	}
	if opts.Dir == "" {
		opts.Dir = defaultDataDir
	}

	return &Worker{
		sink:     sink,
		factory:  factory,
		logger:   logger,
		interval: opts.Interval,
		dir:      opts.Dir,
	}
}

// Run запускает цикл опроса до отмены ctx. Флаг остановки проверяется
// раз в цикл: каждый цикл завершается целиком, полуобработанных
// пакетов не остаётся.
func (w *Worker) Run(ctx context.Context) {
	if w.sink == nil || w.factory == nil {
		w.logger.Warn("ingest worker is disabled: sink or factory is nil")
		return
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.logger.WithError(err).Error("cannot create ingest directory, worker stopped")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.PollOnce()
		}
	}
}

// PollOnce выполняет один цикл опроса каталога и возвращает количество
// принятых заказов. Каждый успешный файл превращается ровно в один
// заказ и удаляется; неудачные пропускаются с warn-логом.
func (w *Worker) PollOnce() int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		ingestRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("ingest directory listing failed")
		return 0
	}

	batchID := uuid.NewString()
	var orders []*domain.Order
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".json" && ext != ".xml" {
			continue
		}

		path := filepath.Join(w.dir, entry.Name())
		parsed, err := ParseFile(path)
		if err != nil {
			ingestFilesTotal.WithLabelValues("malformed").Inc()
			w.logger.WithFields(log.Fields{
				"batch_id": batchID,
				"file":     entry.Name(),
			}).WithError(err).Warn("order file skipped")
			continue
		}

		// Удаляем до добавления: если файл не удалился, заказ не
		// принимается, иначе следующий цикл продублирует его.
		if err := os.Remove(path); err != nil {
			ingestFilesTotal.WithLabelValues("error").Inc()
			w.logger.WithFields(log.Fields{
				"batch_id": batchID,
				"file":     entry.Name(),
			}).WithError(err).Warn("failed to delete ingested file")
			continue
		}

		orders = append(orders, w.factory.New(parsed.Kind, parsed.Items))
		ingestFilesTotal.WithLabelValues("ok").Inc()
	}

	if len(orders) > 0 {
		w.sink.AddOrders(orders)
		ingestOrdersTotal.Add(float64(len(orders)))
		w.logger.WithFields(log.Fields{
			"batch_id": batchID,
			"orders":   len(orders),
		}).Info("ingested order batch")
	}

	ingestRunsTotal.WithLabelValues("ok").Inc()
	return len(orders)
}
