package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr     string
	DataDir      string
	StatePath    string
	MenuPath     string
	PollInterval time.Duration
}

// DefaultConfig возвращает рабочие настройки по умолчанию: HTTP на :8080,
// заказы из каталога data, снапшот в data/state.json.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:     ":8080",
		DataDir:      "data",
		StatePath:    "data/state.json",
		MenuPath:     "menu.yaml",
		PollInterval: time.Second,
	}
}

// fileConfig — YAML-представление конфигурации. Интервал задаётся
// строкой вида "500ms" и разбирается в time.Duration вручную.
type fileConfig struct {
	HTTPAddr     string `yaml:"http_addr"`
	DataDir      string `yaml:"data_dir"`
	StatePath    string `yaml:"state_path"`
	MenuPath     string `yaml:"menu_path"`
	PollInterval string `yaml:"poll_interval"`
}

// LoadConfig собирает конфигурацию слоями: значения по умолчанию, затем
// YAML-файл (если path не пустой), затем переменные окружения
// ORDERTRACK_*. Каждый следующий слой перекрывает предыдущий.
func LoadConfig(path string) (Config, error) {
	return loadConfig(path, os.LookupEnv)
}

// loadConfig принимает функцию чтения окружения отдельно, чтобы тесты
// не трогали реальное окружение процесса.
func loadConfig(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if err := cfg.applyFile(fc); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(fc fileConfig) error {
	if fc.HTTPAddr != "" {
		c.HTTPAddr = fc.HTTPAddr
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.StatePath != "" {
		c.StatePath = fc.StatePath
	}
	if fc.MenuPath != "" {
		c.MenuPath = fc.MenuPath
	}
	if fc.PollInterval != "" {
		interval, err := time.ParseDuration(fc.PollInterval)
		if err != nil {
			return fmt.Errorf("config poll_interval: %w", err)
		}
		c.PollInterval = interval
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ORDERTRACK_HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	if v, ok := lookup("ORDERTRACK_DATA_DIR"); ok {
		c.DataDir = v
	}
	if v, ok := lookup("ORDERTRACK_STATE_PATH"); ok {
		c.StatePath = v
	}
	if v, ok := lookup("ORDERTRACK_MENU_PATH"); ok {
		c.MenuPath = v
	}
	if v, ok := lookup("ORDERTRACK_POLL_INTERVAL"); ok {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ORDERTRACK_POLL_INTERVAL: %w", err)
		}
		c.PollInterval = interval
	}
	return nil
}
