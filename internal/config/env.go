package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPreset   = "DEWATERMARK_PRESET"
	EnvLight    = "DEWATERMARK_LIGHT"
	EnvWorkers  = "DEWATERMARK_WORKERS"
	EnvDPI      = "DEWATERMARK_DPI"
	EnvLogLevel = "DEWATERMARK_LOG_LEVEL"
)

// LoadDotEnv читает переменные из .env, не перезаписывая уже заданные.
// Отсутствие файла не ошибка, found показывает, был ли файл прочитан.
func LoadDotEnv(path string) (found bool, err error) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", path, err)
	}
	return true, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, err := envInt(lookup, EnvLight); err != nil {
		return err
	} else if v != nil {
		cfg.Mask.LightCutoff = *v
	}
	if v, err := envInt(lookup, EnvWorkers); err != nil {
		return err
	} else if v != nil {
		cfg.Workers = *v
	}
	if v, err := envInt(lookup, EnvDPI); err != nil {
		return err
	} else if v != nil {
		cfg.DPI = *v
	}
	if v := envString(lookup, EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func envString(lookup func(string) (string, bool), key string) string {
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func envInt(lookup func(string) (string, bool), key string) (*int, error) {
	s := envString(lookup, key)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, s)
	}
	return &n, nil
}
