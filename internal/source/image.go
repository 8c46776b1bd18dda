package source

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

const pdfExt = ".pdf"

// kind возвращает расширение поддерживаемого файла в нижнем регистре или "".
func kind(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if imageExts[ext] || ext == pdfExt {
		return ext
	}
	return ""
}

func loadImage(path string) (*Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return &Frame{Image: img, Raw: raw, Format: format}, nil
}
