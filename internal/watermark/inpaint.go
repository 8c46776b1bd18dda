package watermark

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ivlev/dewatermark/internal/config"
)

// Candidate строит один вариант восстановленного изображения по маске.
// Возвращенный Mat принадлежит вызывающему.
type Candidate struct {
	Name     string
	Generate func(img, mask gocv.Mat) (gocv.Mat, error)
}

// Score - расхождение кандидата с оригиналом вне маски.
type Score struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Selection - победивший кандидат. Image закрывает вызывающий.
type Selection struct {
	Image  gocv.Mat
	Name   string
	Scores []Score
}

// Candidates возвращает встроенные стратегии в порядке выбора.
func Candidates(cfg config.InpaintConfig) []Candidate {
	return []Candidate{
		{Name: "blend", Generate: func(img, mask gocv.Mat) (gocv.Mat, error) {
			return Blend(img, mask, cfg), nil
		}},
		{Name: "twopass", Generate: func(img, mask gocv.Mat) (gocv.Mat, error) {
			return TwoPass(img, mask, cfg), nil
		}},
		{Name: "patch", Generate: func(img, mask gocv.Mat) (gocv.Mat, error) {
			return Patch(img, mask, cfg), nil
		}},
	}
}

// Select запускает всех кандидатов и оставляет кандидата с наименьшим Score.
// При равенстве побеждает тот, что раньше в списке: patch пропускает мелкие
// пятна и может вернуть нетронутую страницу с идеальной оценкой 0, поэтому
// он стоит последним.
func Select(img, mask gocv.Mat, candidates []Candidate) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no inpainting candidates")
	}

	var best *Selection
	bestValue := 0.0
	scores := make([]Score, 0, len(candidates))

	for _, c := range candidates {
		out, err := c.Generate(img, mask)
		if err != nil {
			closeSelection(best)
			return nil, fmt.Errorf("candidate %s: %w", c.Name, err)
		}

		v, err := Divergence(img, out, mask)
		if err != nil {
			out.Close()
			closeSelection(best)
			return nil, fmt.Errorf("candidate %s: %w", c.Name, err)
		}
		scores = append(scores, Score{Name: c.Name, Value: v})

		if best == nil || v < bestValue {
			closeSelection(best)
			best = &Selection{Image: out, Name: c.Name}
			bestValue = v
			continue
		}
		out.Close()
	}

	best.Scores = scores
	return best, nil
}

func closeSelection(s *Selection) {
	if s != nil {
		s.Image.Close()
	}
}

// Divergence - среднее абсолютное отличие candidate от original по всем
// каналам пикселей, где маска равна нулю. Маска на все изображение дает 0.
func Divergence(original, candidate, mask gocv.Mat) (float64, error) {
	if original.Rows() != candidate.Rows() || original.Cols() != candidate.Cols() || original.Type() != candidate.Type() {
		return 0, fmt.Errorf("candidate %dx%d type %v does not match original %dx%d type %v",
			candidate.Cols(), candidate.Rows(), candidate.Type(), original.Cols(), original.Rows(), original.Type())
	}
	if mask.Rows() != original.Rows() || mask.Cols() != original.Cols() {
		return 0, fmt.Errorf("mask %dx%d does not match image %dx%d", mask.Cols(), mask.Rows(), original.Cols(), original.Rows())
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(original, candidate, &diff)

	d := diff.ToBytes()
	m := mask.ToBytes()
	ch := diff.Channels()

	var sum, count int64
	for i, v := range m {
		if v != 0 {
			continue
		}
		for c := 0; c < ch; c++ {
			sum += int64(d[i*ch+c])
		}
		count += int64(ch)
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}

// Blend смешивает Telea (четкие края текста) и Navier-Stokes (гладкая текстура).
func Blend(img, mask gocv.Mat, cfg config.InpaintConfig) gocv.Mat {
	telea := gocv.NewMat()
	defer telea.Close()
	gocv.Inpaint(img, mask, &telea, float32(cfg.TeleaRadius), gocv.Telea)

	ns := gocv.NewMat()
	defer ns.Close()
	gocv.Inpaint(img, mask, &ns, float32(cfg.NSRadius), gocv.NS)

	out := gocv.NewMat()
	gocv.AddWeighted(telea, cfg.BlendWeight, ns, 1-cfg.BlendWeight, 0, &out)
	return out
}

// TwoPass заливает маску Telea, затем повторно проходит результат NS.
func TwoPass(img, mask gocv.Mat, cfg config.InpaintConfig) gocv.Mat {
	first := gocv.NewMat()
	defer first.Close()
	gocv.Inpaint(img, mask, &first, float32(cfg.TwoPassTelea), gocv.Telea)

	out := gocv.NewMat()
	gocv.Inpaint(first, mask, &out, float32(cfg.TwoPassNS), gocv.NS)
	return out
}

// Patch заливает каждое пятно маски только внутри окна вокруг его рамки, с
// отступом, и дальний контент не размазывается. Окна вырезаются из уже
// частично исправленного результата, поэтому перекрытие не возвращает
// удаленное пятно. Пятна площадью меньше MinArea пропускаются.
func Patch(img, mask gocv.Mat, cfg config.InpaintConfig) gocv.Mat {
	out := img.Clone()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if gocv.ContourArea(c) < cfg.MinArea {
			continue
		}
		box := gocv.BoundingRect(c)
		window := patchWindow(box, bounds, cfg)
		repairWindow(out, window, box.Sub(window.Min), cfg.PatchRadius)
	}
	return out
}

// patchWindow расширяет box на max(MinPad, PadRatio*max(w, h)) и обрезает
// по bounds.
func patchWindow(box, bounds image.Rectangle, cfg config.InpaintConfig) image.Rectangle {
	pad := max(cfg.MinPad, int(float64(max(box.Dx(), box.Dy()))*cfg.PadRatio))
	return box.Inset(-pad).Intersect(bounds)
}

// repairWindow заливает box (в координатах окна) внутри окна window в dst.
func repairWindow(dst gocv.Mat, window, box image.Rectangle, radius float64) {
	roi := dst.Region(window)
	defer roi.Close()

	patch := roi.Clone()
	defer patch.Close()

	pm := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), window.Dy(), window.Dx(), gocv.MatTypeCV8UC1)
	defer pm.Close()
	inner := pm.Region(box)
	inner.SetTo(white)
	inner.Close()

	clean := gocv.NewMat()
	defer clean.Close()
	gocv.Inpaint(patch, pm, &clean, float32(radius), gocv.Telea)

	clean.CopyTo(&roi)
}
