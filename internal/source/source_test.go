package source

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return buf.Bytes()
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 10, 8)
	writeJPEG(t, filepath.Join(dir, "a.JPG"))
	writePNG(t, filepath.Join(dir, "sub", "c.png"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	return dir
}

func names(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Name
	}
	return out
}

func TestDirSourceListing(t *testing.T) {
	dir := fixtureDir(t)

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"flat", false, []string{"a.JPG", "b.png"}},
		{"recursive", true, []string{"a.JPG", "b.png", filepath.Join("sub", "c.png")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewDirSource(dir, Options{Recursive: tt.recursive, DPI: 100})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(s.Pages()))
			for _, p := range s.Pages() {
				assert.False(t, p.IsPDF())
				assert.Equal(t, filepath.Join(dir, p.Name), p.Path)
			}
		})
	}
}

func TestDirSourceLoad(t *testing.T) {
	dir := t.TempDir()
	raw := writePNG(t, filepath.Join(dir, "page.png"), 10, 8)

	s, err := NewDirSource(dir, Options{})
	require.NoError(t, err)
	require.Len(t, s.Pages(), 1)

	f, err := s.Load(s.Pages()[0])
	require.NoError(t, err)
	assert.Equal(t, "png", f.Format)
	assert.Equal(t, raw, f.Raw)
	assert.Equal(t, image.Rect(0, 0, 10, 8), f.Image.Bounds())
}

func TestDirSourceCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte{0xff, 0xd8, 0xff}, 0o644))

	s, err := NewDirSource(dir, Options{})
	require.NoError(t, err)
	require.Len(t, s.Pages(), 2)

	for _, p := range s.Pages() {
		_, err := s.Load(p)
		require.ErrorIs(t, err, ErrDecode, p.Name)
	}
}

func TestNewDirSourceNotDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.png")
	writePNG(t, path, 2, 2)

	_, err := NewDirSource(path, Options{})
	require.Error(t, err)

	_, err = NewDirSource(filepath.Join(dir, "missing"), Options{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPDFPageName(t *testing.T) {
	assert.Equal(t, "deck_page1.png", PDFPageName("deck.pdf", 0))
	assert.Equal(t, filepath.Join("sub", "deck_page12.png"), PDFPageName(filepath.Join("sub", "deck.PDF"), 11))
}
