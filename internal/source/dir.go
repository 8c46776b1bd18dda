package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Options struct {
	Recursive bool
	DPI       int
}

// DirSource перечисляет поддерживаемые файлы папки. PDF раскрывается в
// отдельный Page на каждую страницу документа.
type DirSource struct {
	root  string
	dpi   int
	pages []Page
}

func NewDirSource(root string, opts Options) (*DirSource, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	rels, err := listFiles(root, opts.Recursive)
	if err != nil {
		return nil, err
	}

	s := &DirSource{root: root, dpi: opts.DPI}
	for _, rel := range rels {
		path := filepath.Join(root, rel)
		if kind(rel) != pdfExt {
			s.pages = append(s.pages, Page{Name: rel, Path: path, Index: imageIndex})
			continue
		}

		n, err := pdfPageCount(path)
		if err != nil {
			// Битый PDF становится одной страницей, которая упадет при загрузке.
			s.pages = append(s.pages, Page{Name: rel, Path: path, Index: 0, err: err})
			continue
		}
		for i := 0; i < n; i++ {
			s.pages = append(s.pages, Page{Name: PDFPageName(rel, i), Path: path, Index: i})
		}
	}
	return s, nil
}

func (s *DirSource) Pages() []Page {
	return s.pages
}

func (s *DirSource) Load(p Page) (*Frame, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.IsPDF() {
		return renderPDFPage(p.Path, p.Index, s.dpi)
	}
	return loadImage(p.Path)
}

// PDFPageName дает имя "<stem>_page<N>.png" для страницы index (с нуля) файла rel.
func PDFPageName(rel string, index int) string {
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return fmt.Sprintf("%s_page%d.png", stem, index+1)
}

// listFiles возвращает отсортированные пути поддерживаемых файлов относительно root.
func listFiles(root string, recursive bool) ([]string, error) {
	var rels []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && kind(entry.Name()) != "" {
				rels = append(rels, entry.Name())
			}
		}
		sort.Strings(rels)
		return rels, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || kind(d.Name()) == "" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(rels)
	return rels, nil
}
