package logger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Bootstrap включает читаемый вывод уровня info на w. Используется до
// чтения конфигурации.
func Bootstrap(w io.Writer) {
	setup(w, zerolog.InfoLevel, true)
}

// InitWriter настраивает глобальный логгер zerolog на w. При human вывод идет
// через ConsoleWriter, иначе по одному JSON-объекту в строке. Пустой level
// означает info.
func InitWriter(w io.Writer, level string, human bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	setup(w, lvl, human)
	return nil
}

func setup(w io.Writer, lvl zerolog.Level, human bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(lvl)

	if human {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
