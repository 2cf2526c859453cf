package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordertrack/internal/domain"
	"github.com/vladislavdragonenkov/ordertrack/internal/metrics"
	"github.com/vladislavdragonenkov/ordertrack/internal/service/report"
	"github.com/vladislavdragonenkov/ordertrack/internal/storage/memory"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Factory *domain.Factory
	Store   *memory.Store
	Menu    report.Menu
	Logger  *log.Entry
}

// NewDependencies создаёт и инициализирует все зависимости приложения.
// Отсутствующий каталог себестоимости не мешает запуску: отчёты тогда
// считают закупочную цену нулевой.
func NewDependencies(cfg Config, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	factory := domain.NewFactory()
	store := memory.NewStore(factory,
		memory.WithLogger(logger.WithField("component", "order-store")),
		memory.WithMetrics(metrics.NewStoreMetrics()),
	)

	menu, err := report.LoadMenu(cfg.MenuPath)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.MenuPath).Warn("menu catalog unavailable, reports will use zero cost")
		menu = report.Menu{}
	}

	return &Dependencies{
		Factory: factory,
		Store:   store,
		Menu:    menu,
		Logger:  logger,
	}
}
