package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	healthcheck "github.com/vladislavdragonenkov/ordertrack/internal/health"
	"github.com/vladislavdragonenkov/ordertrack/internal/service/ingest"
	"github.com/vladislavdragonenkov/ordertrack/internal/service/rest"
	"github.com/vladislavdragonenkov/ordertrack/internal/version"
)

// Run собирает приложение и держит его до отмены ctx: восстанавливает
// состояние из снапшота, запускает воркер импорта заказов и HTTP-сервер,
// а при остановке сохраняет состояние обратно на диск.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	deps := NewDependencies(cfg, logger)

	// Повреждённый или недоступный снапшот не мешает запуску: стартуем
	// с пустыми коллекциями, файл остаётся на диске для разбора.
	if err := deps.Store.LoadState(cfg.StatePath); err != nil {
		logger.WithError(err).WithField("path", cfg.StatePath).Error("state restore failed, starting empty")
	}

	worker := ingest.NewWorker(deps.Store, deps.Factory,
		ingest.WithLogger(logger.WithField("component", "ingest-worker")),
		ingest.WithInterval(cfg.PollInterval),
		ingest.WithDir(cfg.DataDir),
	)

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.RegisterChecker("ingest-dir", healthcheck.NewDirChecker("ingest-dir", cfg.DataDir))

	mux := chi.NewMux()
	mux.Use(middleware.Recoverer)
	restHandler := rest.NewHandler(deps.Store, deps.Factory, deps.Menu, cfg.StatePath, logger.WithField("component", "http-handler"))
	restHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Method(http.MethodGet, "/healthz", healthHandler)
	mux.Get("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("воркер импорта опрашивает %s каждые %s", cfg.DataDir, cfg.PollInterval)
		worker.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(srv, logger)
		return groupCtx.Err()
	})

	err := group.Wait()

	if saveErr := deps.Store.SaveState(cfg.StatePath); saveErr != nil {
		logger.WithError(saveErr).Error("state save on shutdown failed")
	}

	return err
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
