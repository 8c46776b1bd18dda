package watermark

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ivlev/dewatermark/internal/config"
)

// Remover выполняет построение маски, выбор кандидата и постобработку с
// фиксированной конфигурацией. Между вызовами Process состояние не меняется,
// Remover можно использовать из нескольких горутин. Освобождается через Close.
type Remover struct {
	mask       config.MaskConfig
	post       config.PostConfig
	candidates []Candidate
	keepMask   bool

	user     gocv.Mat
	hasUser  bool
	userMode config.MaskMode
}

type Option func(*Remover)

// WithCandidates заменяет встроенные стратегии заливки.
func WithCandidates(cs []Candidate) Option {
	return func(r *Remover) { r.candidates = cs }
}

// WithMask включает возврат маски в Result.Mask.
func WithMask() Option {
	return func(r *Remover) { r.keepMask = true }
}

// NewRemover читает файл маски, если он задан в cfg.Mask.File.
func NewRemover(cfg *config.Config, opts ...Option) (*Remover, error) {
	r := &Remover{
		mask:       cfg.Mask,
		post:       cfg.Post,
		candidates: Candidates(cfg.Inpaint),
		userMode:   cfg.Mask.FileMode,
	}
	if cfg.Mask.File != "" {
		m, err := LoadMask(cfg.Mask.File)
		if err != nil {
			return nil, err
		}
		r.user, r.hasUser = m, true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Remover) Close() {
	if r.hasUser {
		r.user.Close()
		r.hasUser = false
	}
}

// Result содержит Mat, которыми владеет вызывающий; освобождаются через Close.
type Result struct {
	Image      gocv.Mat
	Mask       gocv.Mat
	MaskPixels int
	Candidate  string
	Scores     []Score

	hasMask bool
}

func (r *Result) Close() {
	r.Image.Close()
	if r.hasMask {
		r.Mask.Close()
	}
}

// HasMask сообщает, заполнено ли поле Mask (см. WithMask).
func (r *Result) HasMask() bool {
	return r.hasMask
}

// Process восстанавливает img (BGR) в новое изображение того же размера.
// При пустой маске возвращает ErrNoWatermark и заливку не запускает.
func (r *Remover) Process(img gocv.Mat) (*Result, error) {
	mask, n, err := r.buildMask(img)
	if err != nil {
		return nil, err
	}

	sel, err := Select(img, mask, r.candidates)
	if err != nil {
		mask.Close()
		return nil, fmt.Errorf("inpaint: %w", err)
	}

	res := &Result{
		Image:      sel.Image,
		MaskPixels: n,
		Candidate:  sel.Name,
		Scores:     sel.Scores,
	}
	if r.post.Enabled {
		res.Image = PostProcess(sel.Image, r.post)
		sel.Image.Close()
	}

	if r.keepMask {
		res.Mask, res.hasMask = mask, true
	} else {
		mask.Close()
	}
	return res, nil
}

// buildMask объединяет эвристику с маской из файла. В режиме replace
// эвристика не запускается.
func (r *Remover) buildMask(img gocv.Mat) (gocv.Mat, int, error) {
	if !r.hasUser {
		return BuildMask(img, r.mask)
	}
	if img.Empty() {
		return gocv.Mat{}, 0, ErrEmptyImage
	}

	user := fitMask(r.user, img.Rows(), img.Cols())
	if r.userMode == config.MaskReplace {
		return counted(user)
	}

	auto, _, err := BuildMask(img, r.mask)
	if errors.Is(err, ErrNoWatermark) {
		return counted(user)
	}
	if err != nil {
		user.Close()
		return gocv.Mat{}, 0, err
	}
	defer user.Close()

	gocv.BitwiseOr(auto, user, &auto)
	return counted(auto)
}
