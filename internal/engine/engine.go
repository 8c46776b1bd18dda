package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/dewatermark/internal/config"
	"github.com/ivlev/dewatermark/internal/report"
	"github.com/ivlev/dewatermark/internal/source"
	"github.com/ivlev/dewatermark/internal/watermark"
)

type Project struct {
	Config  *config.Config
	Source  source.Source
	Remover *watermark.Remover
}

// NewProject собирает Remover из конфигурации. Маска возвращается только
// если задан MaskDir. Project освобождается через Close.
func NewProject(cfg *config.Config, src source.Source, opts ...watermark.Option) (*Project, error) {
	if cfg.MaskDir != "" {
		opts = append(opts, watermark.WithMask())
	}
	rm, err := watermark.NewRemover(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Project{
		Config:  cfg,
		Source:  src,
		Remover: rm,
	}, nil
}

func (p *Project) Close() {
	p.Remover.Close()
}

// Run обрабатывает все страницы источника. Ошибки отдельных страниц попадают
// в отчет; ошибка возвращается, только если пакет не удалось запустить или
// его отменили.
func (p *Project) Run(ctx context.Context) (*report.Report, error) {
	startTime := time.Now()
	rep := &report.Report{
		Input:   p.Config.InputDir,
		Output:  p.Config.OutputDir,
		Preset:  p.Config.Preset,
		Started: startTime,
	}

	pages := p.Source.Pages()
	if len(pages) == 0 {
		log.Warn().Str("input", p.Config.InputDir).Msg("во входной папке нет поддерживаемых файлов")
		rep.Duration = time.Since(startTime)
		return rep, nil
	}

	if err := os.MkdirAll(p.Config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	if p.Config.MaskDir != "" {
		if err := os.MkdirAll(p.Config.MaskDir, 0755); err != nil {
			return nil, fmt.Errorf("mask dir: %w", err)
		}
	}

	log.Info().
		Str("input", p.Config.InputDir).
		Str("output", p.Config.OutputDir).
		Str("preset", p.Config.Preset).
		Int("pages", len(pages)).
		Int("workers", p.Config.Workers).
		Msg("старт обработки")

	// Каждая страница пишет только в свою ячейку, порядок отчета равен порядку источника.
	outcomes := make([]report.Outcome, len(pages))
	started := make([]bool, len(pages))

	var g errgroup.Group
	g.SetLimit(max(1, p.Config.Workers))
	for i, page := range pages {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = failed(page, err, 0)
				return nil
			}
			outcomes[i] = p.processPage(page)
			return nil
		})
	}
	g.Wait()

	for i, page := range pages {
		if !started[i] {
			outcomes[i] = failed(page, ctx.Err(), 0)
		}
	}

	rep.Pages = outcomes
	rep.Tally()
	rep.Duration = time.Since(startTime)

	log.Info().
		Int("cleaned", rep.Cleaned).
		Int("unchanged", rep.Unchanged).
		Int("failed", rep.Failed).
		Int64("duration_ms", rep.Duration.Milliseconds()).
		Msg("обработка завершена")

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (p *Project) processPage(page source.Page) report.Outcome {
	start := time.Now()
	out, err := p.process(page)
	if err != nil {
		log.Error().Err(err).Str("file", page.Name).Msg("ошибка обработки, файл пропущен")
		return failed(page, err, time.Since(start))
	}
	out.Duration = time.Since(start)

	ev := log.Info().
		Str("file", page.Name).
		Str("status", string(out.Status)).
		Int64("duration_ms", out.Duration.Milliseconds())
	if out.Status == report.StatusCleaned {
		ev = ev.Int("mask_px", out.MaskPixels).Str("candidate", out.Candidate)
	}
	ev.Msg("страница обработана")
	return out
}

func (p *Project) process(page source.Page) (report.Outcome, error) {
	out := report.Outcome{Name: page.Name}
	dst := filepath.Join(p.Config.OutputDir, page.Name)

	frame, err := p.Source.Load(page)
	if err != nil {
		return out, err
	}
	log.Debug().Str("file", page.Name).Str("format", frame.Format).
		Int("width", frame.Image.Bounds().Dx()).Int("height", frame.Image.Bounds().Dy()).
		Msg("страница загружена")

	img, err := watermark.ToMat(frame.Image)
	if err != nil {
		return out, err
	}
	defer img.Close()

	res, err := p.Remover.Process(img)
	if errors.Is(err, watermark.ErrNoWatermark) {
		data := frame.Raw
		if data == nil {
			if data, err = watermark.EncodeFor(dst, img); err != nil {
				return out, err
			}
		}
		if err := writeAtomic(dst, data); err != nil {
			return out, err
		}
		out.Status = report.StatusUnchanged
		return out, nil
	}
	if err != nil {
		return out, err
	}
	defer res.Close()

	data, err := watermark.EncodeFor(dst, res.Image)
	if err != nil {
		return out, err
	}
	if err := writeAtomic(dst, data); err != nil {
		return out, err
	}

	if res.HasMask() && p.Config.MaskDir != "" {
		if err := p.dumpMask(page, res); err != nil {
			log.Warn().Err(err).Str("file", page.Name).Msg("не удалось сохранить маску")
		}
	}

	out.Status = report.StatusCleaned
	out.MaskPixels = res.MaskPixels
	out.Candidate = res.Candidate
	out.Scores = res.Scores
	return out, nil
}

func (p *Project) dumpMask(page source.Page, res *watermark.Result) error {
	path := MaskPath(p.Config.MaskDir, page.Name)
	data, err := watermark.EncodeFor(path, res.Mask)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// MaskPath возвращает "<dir>/<name без расширения>_mask.png".
func MaskPath(dir, name string) string {
	return filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+"_mask.png")
}

func failed(page source.Page, err error, d time.Duration) report.Outcome {
	return report.Outcome{
		Name:     page.Name,
		Status:   report.StatusFailed,
		Error:    err.Error(),
		Err:      err,
		Duration: d,
	}
}
