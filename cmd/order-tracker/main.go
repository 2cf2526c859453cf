package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordertrack/internal/app"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if raw := os.Getenv("ORDERTRACK_LOG_LEVEL"); raw != "" {
		level, err := log.ParseLevel(raw)
		if err != nil {
			log.WithField("level", raw).Warn("неизвестный уровень логирования, используем info")
			return
		}
		log.SetLevel(level)
	}
}

func main() {
	// .env необязателен: локальное удобство, в проде окружение задаёт среда.
	_ = godotenv.Load()
	setupLogger()

	cfg, err := app.LoadConfig(os.Getenv("ORDERTRACK_CONFIG"))
	if err != nil {
		log.WithError(err).Fatal("не удалось прочитать конфигурацию")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":  cfg.HTTPAddr,
		"data_dir":   cfg.DataDir,
		"state_path": cfg.StatePath,
	}).Info("запускаем OrderTracker")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("OrderTracker остановлен")
}
