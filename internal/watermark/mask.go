package watermark

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ivlev/dewatermark/internal/config"
)

var (
	// ErrNoWatermark - маска пустая, изображение можно оставить как есть.
	ErrNoWatermark = errors.New("no watermark found")
	// ErrEmptyImage - на входе нет пикселей (пустой Mat, nil или файл маски
	// не читается).
	ErrEmptyImage = errors.New("empty image")
)

var white = gocv.NewScalar(255, 0, 0, 0)

// BuildMask возвращает маску CV_8UC1 для img (BGR), где 255 отмечает пиксели
// под заливку, и число таких пикселей. Маска принадлежит вызывающему. Если
// ничего не отмечено, возвращается ErrNoWatermark без маски.
func BuildMask(img gocv.Mat, cfg config.MaskConfig) (gocv.Mat, int, error) {
	if img.Empty() {
		return gocv.Mat{}, 0, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	zones := zoneMask(gray.Rows(), gray.Cols(), cfg.Zones)
	defer zones.Close()

	// Светлые пиксели: полупрозрачный серый текст водяного знака.
	candidates := gocv.NewMat()
	defer candidates.Close()
	gocv.Threshold(gray, &candidates, float32(cfg.LightCutoff), 255, gocv.ThresholdBinary)

	if cfg.Edges {
		edges := edgeMask(gray, cfg)
		gocv.BitwiseOr(candidates, edges, &candidates)
		edges.Close()
	}

	// Зоны работают как жесткий фильтр: светлый фон в центре не трогаем.
	mask := gocv.NewMat()
	gocv.BitwiseAnd(zones, candidates, &mask)

	return counted(cleanup(mask, cfg))
}

// counted закрывает пустую маску и возвращает ErrNoWatermark.
func counted(mask gocv.Mat) (gocv.Mat, int, error) {
	n := gocv.CountNonZero(mask)
	if n == 0 {
		mask.Close()
		return gocv.Mat{}, 0, ErrNoWatermark
	}
	return mask, n, nil
}

// LoadMask читает готовую маску из файла в оттенках серого.
func LoadMask(path string) (gocv.Mat, error) {
	m := gocv.IMRead(path, gocv.IMReadGrayScale)
	if m.Empty() {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("%w: mask file %s", ErrEmptyImage, path)
	}
	return m, nil
}

// fitMask масштабирует маску под rows x cols без интерполяции и бинаризует:
// светлее 127 - под заливку.
func fitMask(src gocv.Mat, rows, cols int) gocv.Mat {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(cols, rows), 0, 0, gocv.InterpolationNearestNeighbor)

	out := gocv.NewMat()
	gocv.Threshold(resized, &out, 127, 255, gocv.ThresholdBinary)
	return out
}

// zoneMask закрашивает 255 каждую зону.
func zoneMask(rows, cols int, zs []config.Zone) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	for _, z := range zs {
		r := z.Rect(cols, rows)
		if r.Empty() {
			continue
		}
		roi := m.Region(r)
		roi.SetTo(white)
		roi.Close()
	}
	return m
}

// edgeMask ловит штрихи текста и логотипов, которые светлы не целиком.
func edgeMask(gray gocv.Mat, cfg config.MaskConfig) gocv.Mat {
	edges := gocv.NewMat()
	gocv.Canny(gray, &edges, float32(cfg.CannyLow), float32(cfg.CannyHigh))

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(cfg.EdgeKernel, cfg.EdgeKernel))
	defer kernel.Close()
	return dilate(edges, kernel, cfg.EdgeIterations)
}

// cleanup делает closing и opening (заполняет разрывы, убирает точки), затем
// расширяет маску на сглаженные края. Исходная маска освобождается.
func cleanup(mask gocv.Mat, cfg config.MaskConfig) gocv.Mat {
	size := cfg.MorphKernel
	if size <= 0 && cfg.DilateIterations == 0 {
		return mask
	}
	if size <= 0 {
		size = 3
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer kernel.Close()

	if cfg.MorphKernel > 0 {
		mask = morph(mask, gocv.MorphClose, kernel)
		mask = morph(mask, gocv.MorphOpen, kernel)
	}
	return dilate(mask, kernel, cfg.DilateIterations)
}

func morph(src gocv.Mat, op gocv.MorphType, kernel gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.MorphologyEx(src, &dst, op, kernel)
	src.Close()
	return dst
}

// dilate освобождает src.
func dilate(src, kernel gocv.Mat, iterations int) gocv.Mat {
	for i := 0; i < iterations; i++ {
		dst := gocv.NewMat()
		gocv.Dilate(src, &dst, kernel)
		src.Close()
		src = dst
	}
	return src
}
