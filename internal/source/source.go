package source

import (
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// ErrDecode означает, что файл не удалось прочитать как изображение или PDF.
var ErrDecode = errors.New("decode failed")

const imageIndex = -1

// Page - единица работы пакета. Name - путь результата относительно папки
// вывода, Index - номер страницы PDF с нуля или -1 для файла изображения.
type Page struct {
	Name  string
	Path  string
	Index int

	err error
}

func (p Page) IsPDF() bool {
	return p.Index != imageIndex
}

// Frame - загруженная страница. Raw хранит исходные байты файла изображения,
// для страниц PDF он nil.
type Frame struct {
	Image  image.Image
	Raw    []byte
	Format string
}

type Source interface {
	Pages() []Page
	Load(p Page) (*Frame, error)
}

func pdfPageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// renderPDFPage открывает документ заново на каждую страницу: fitz.Document
// нельзя делить между горутинами.
func renderPDFPage(path string, index, dpi int) (*Frame, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("%w: %s page %d: %v", ErrDecode, path, index+1, err)
	}
	return &Frame{Image: img, Format: "pdf"}, nil
}
