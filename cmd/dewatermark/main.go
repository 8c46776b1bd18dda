package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ivlev/dewatermark/internal/config"
	"github.com/ivlev/dewatermark/internal/engine"
	"github.com/ivlev/dewatermark/internal/logger"
	"github.com/ivlev/dewatermark/internal/report"
	"github.com/ivlev/dewatermark/internal/source"
	"github.com/ivlev/dewatermark/internal/system"
)

var version = "dev"

const (
	exitOK        = 0
	exitConfig    = 1
	exitAllFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	in, out, configFile, preset string
	light                       int
	margin                      float64
	edges                       bool
	morph, dilate               int
	post                        bool
	workers, dpi                int
	recursive                   bool
	maskDir, reportPath         string
	maskFile, maskMode          string
	logLevel                    string
	human                       bool
}

func parseFlags(args []string, output io.Writer) (*flags, *flag.FlagSet, error) {
	f := &flags{}
	fs := flag.NewFlagSet("dewatermark", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&f.in, "in", "", "Папка с исходными изображениями и PDF")
	fs.StringVar(&f.out, "out", "", "Папка для результатов (не совпадает с -in)")
	fs.StringVar(&f.configFile, "config", "", "YAML-файл конфигурации")
	fs.StringVar(&f.preset, "preset", "", "Пресет маски: "+fmt.Sprint(config.PresetNames()))
	fs.IntVar(&f.light, "light", 0, "Порог яркости 0-255 для светлого текста")
	fs.Float64Var(&f.margin, "margin", 0, "Глубина полос и боковых зон (доля 0-1)")
	fs.BoolVar(&f.edges, "edges", true, "Добавлять в маску границы Canny")
	fs.IntVar(&f.morph, "morph", 0, "Размер ядра морфологии (0 - выключить)")
	fs.IntVar(&f.dilate, "dilate", 0, "Итерации финального расширения маски")
	fs.BoolVar(&f.post, "post", true, "Сглаживание и резкость после заливки")
	fs.IntVar(&f.workers, "workers", config.DefaultWorkers, "Потоки")
	fs.IntVar(&f.dpi, "dpi", config.DefaultDPI, "DPI рендеринга страниц PDF")
	fs.BoolVar(&f.recursive, "recursive", false, "Обходить подпапки")
	fs.StringVar(&f.maskDir, "mask-dir", "", "Папка для отладочных масок")
	fs.StringVar(&f.maskFile, "mask-file", "", "Готовая маска (PNG, белое - заливать), масштабируется под страницу")
	fs.StringVar(&f.maskMode, "mask-mode", "", "Как применять -mask-file: union или replace")
	fs.StringVar(&f.reportPath, "report", "", "Путь к YAML-отчету")
	fs.StringVar(&f.logLevel, "log-level", "", "Уровень логов: debug, info, warn, error")
	fs.BoolVar(&f.human, "human", true, "Читаемый вывод логов вместо JSON")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// apply переносит в конфиг только явно заданные флаги.
func (f *flags) apply(cfg *config.Config, fs *flag.FlagSet) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "in":
			cfg.InputDir = f.in
		case "out":
			cfg.OutputDir = f.out
		case "light":
			cfg.Mask.LightCutoff = f.light
		case "margin":
			cfg.Mask.SetMargin(f.margin)
		case "edges":
			cfg.Mask.Edges = f.edges
		case "morph":
			cfg.Mask.MorphKernel = f.morph
		case "dilate":
			cfg.Mask.DilateIterations = f.dilate
		case "post":
			cfg.Post.Enabled = f.post
		case "workers":
			cfg.Workers = f.workers
		case "dpi":
			cfg.DPI = f.dpi
		case "recursive":
			cfg.Recursive = f.recursive
		case "mask-dir":
			cfg.MaskDir = f.maskDir
		case "mask-file":
			cfg.Mask.File = f.maskFile
		case "mask-mode":
			cfg.Mask.FileMode = config.MaskMode(f.maskMode)
		case "report":
			cfg.ReportPath = f.reportPath
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "human":
			cfg.Human = f.human
		}
	})
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	f, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	logger.Bootstrap(stderr)

	found, err := config.LoadDotEnv(".env")
	if err != nil {
		log.Error().Err(err).Msg("ошибка чтения .env")
		return exitConfig
	}

	cfg, err := config.Load(config.LoadOptions{File: f.configFile, Preset: f.preset})
	if err != nil {
		log.Error().Err(err).Msg("ошибка конфигурации")
		return exitConfig
	}
	f.apply(cfg, fs)
	cfg.BuildVersion = version

	if err := logger.InitWriter(stderr, cfg.LogLevel, cfg.Human); err != nil {
		log.Error().Err(err).Msg("ошибка конфигурации")
		return exitConfig
	}
	if found {
		log.Debug().Msg("загружен .env")
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("ошибка конфигурации")
		return exitConfig
	}

	system.InitResourceLimits()
	if cfg.Workers > 1 {
		host, err := system.Probe()
		if err != nil {
			log.Warn().Err(err).Msg("не удалось получить ресурсы хоста")
		} else {
			host.Log()
			if n := host.ClampWorkers(cfg.Workers); n != cfg.Workers {
				log.Warn().Int("requested", cfg.Workers).Int("workers", n).Msg("число потоков уменьшено")
				cfg.Workers = n
			}
		}
	}

	src, err := source.NewDirSource(cfg.InputDir, source.Options{Recursive: cfg.Recursive, DPI: cfg.DPI})
	if err != nil {
		log.Error().Err(err).Msg("ошибка инициализации источника")
		return exitConfig
	}

	log.Info().Str("build", cfg.BuildVersion).Str("preset", cfg.Preset).Msg("dewatermark")

	project, err := engine.NewProject(cfg, src)
	if err != nil {
		log.Error().Err(err).Msg("ошибка инициализации")
		return exitConfig
	}
	defer project.Close()

	rep, err := project.Run(ctx)
	if rep == nil {
		log.Error().Err(err).Msg("ошибка проекта")
		return exitConfig
	}
	if err != nil {
		log.Warn().Err(err).Msg("обработка прервана")
	}

	if cfg.ReportPath != "" {
		if err := report.Write(rep, cfg.ReportPath); err != nil {
			log.Error().Err(err).Str("file", cfg.ReportPath).Msg("не удалось сохранить отчет")
		} else {
			log.Info().Str("file", cfg.ReportPath).Msg("отчет сохранен")
		}
	}

	if rep.AllFailed() {
		log.Error().Int("failed", rep.Failed).Msg("ни одна страница не обработана")
		return exitAllFailed
	}
	return exitOK
}
