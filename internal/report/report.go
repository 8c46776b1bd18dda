package report

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/dewatermark/internal/watermark"
)

type Status string

const (
	StatusCleaned   Status = "cleaned"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Outcome - результат обработки одной страницы.
type Outcome struct {
	Name       string            `yaml:"name"`
	Status     Status            `yaml:"status"`
	MaskPixels int               `yaml:"mask_pixels,omitempty"`
	Candidate  string            `yaml:"candidate,omitempty"`
	Scores     []watermark.Score `yaml:"scores,omitempty"`
	Error      string            `yaml:"error,omitempty"`
	Duration   time.Duration     `yaml:"duration"`

	Err error `yaml:"-"`
}

type Report struct {
	Input     string        `yaml:"input"`
	Output    string        `yaml:"output"`
	Preset    string        `yaml:"preset"`
	Started   time.Time     `yaml:"started"`
	Duration  time.Duration `yaml:"duration"`
	Cleaned   int           `yaml:"cleaned"`
	Unchanged int           `yaml:"unchanged"`
	Failed    int           `yaml:"failed"`
	Pages     []Outcome     `yaml:"pages"`
}

// Tally пересчитывает итоговые поля по Pages.
func (r *Report) Tally() {
	r.Cleaned, r.Unchanged, r.Failed = 0, 0, 0
	for _, p := range r.Pages {
		switch p.Status {
		case StatusCleaned:
			r.Cleaned++
		case StatusUnchanged:
			r.Unchanged++
		case StatusFailed:
			r.Failed++
		}
	}
}

// AllFailed сообщает, что страницы были и ни одна не обработана.
func (r *Report) AllFailed() bool {
	return len(r.Pages) > 0 && r.Failed == len(r.Pages)
}

// Write сохраняет отчет в YAML, создавая родительскую папку.
func Write(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
