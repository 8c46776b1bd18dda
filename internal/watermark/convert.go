package watermark

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// ToMat переводит декодированное изображение в Mat BGR CV_8UC3, альфа отбрасывается.
func ToMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.Mat{}, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return gocv.Mat{}, fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Dx(), b.Dy())
	}
	return gocv.ImageToMatRGB(img)
}

var encoders = map[string]gocv.FileExt{
	".png":  gocv.PNGFileExt,
	".jpg":  gocv.JPEGFileExt,
	".jpeg": gocv.JPEGFileExt,
	".webp": gocv.FileExt(".webp"),
	".bmp":  gocv.FileExt(".bmp"),
	".tif":  gocv.FileExt(".tiff"),
	".tiff": gocv.FileExt(".tiff"),
}

// EncodeFor кодирует img в формат по расширению name, неизвестное расширение
// дает PNG.
func EncodeFor(name string, img gocv.Mat) ([]byte, error) {
	ext, ok := encoders[strings.ToLower(filepath.Ext(name))]
	if !ok {
		ext = gocv.PNGFileExt
	}
	buf, err := gocv.IMEncode(ext, img)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}
	defer buf.Close()

	// GetBytes указывает на нативную память буфера, копируем до Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
