package watermark

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ivlev/dewatermark/internal/config"
)

// PostProcess прячет швы заливки: билатеральный фильтр сглаживает с
// сохранением краев, затем подмешивается слегка повышенная резкость.
// Результат - новый Mat.
func PostProcess(img gocv.Mat, cfg config.PostConfig) gocv.Mat {
	smoothed := gocv.NewMat()
	gocv.BilateralFilter(img, &smoothed, cfg.Diameter, cfg.SigmaColor, cfg.SigmaSpace)
	if cfg.SharpenWeight <= 0 {
		return smoothed
	}
	defer smoothed.Close()

	kernel := sharpenKernel()
	defer kernel.Close()

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	gocv.Filter2D(smoothed, &sharpened, gocv.MatType(-1), kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)

	out := gocv.NewMat()
	gocv.AddWeighted(smoothed, 1-cfg.SharpenWeight, sharpened, cfg.SharpenWeight, 0, &out)
	return out
}

// sharpenKernel в сумме дает 1: ровные области сохраняют яркость.
func sharpenKernel() gocv.Mat {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			k.SetFloatAt(row, col, -0.5)
		}
	}
	k.SetFloatAt(1, 1, 5.0)
	return k
}
