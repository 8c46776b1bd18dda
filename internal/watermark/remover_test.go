package watermark

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ivlev/dewatermark/internal/config"
)

func newRemover(t *testing.T, cfg *config.Config, opts ...Option) *Remover {
	t.Helper()
	r, err := NewRemover(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

// writeMaskFile сохраняет PNG w x h с белым прямоугольником white.
func writeMaskFile(t *testing.T, w, h int, white image.Rectangle) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := white.Min.Y; y < white.Max.Y; y++ {
		for x := white.Min.X; x < white.Max.X; x++ {
			img.Pix[y*img.Stride+x] = 255
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "mask.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestProcessKeepsDimensions(t *testing.T) {
	img := watermarkedPage()
	defer img.Close()

	for _, post := range []bool{true, false} {
		cfg := config.Default()
		cfg.Post.Enabled = post

		res, err := newRemover(t, cfg).Process(img)
		require.NoError(t, err)

		assert.Equal(t, img.Rows(), res.Image.Rows())
		assert.Equal(t, img.Cols(), res.Image.Cols())
		assert.Equal(t, img.Type(), res.Image.Type())
		assert.Positive(t, res.MaskPixels)
		assert.Contains(t, []string{"blend", "twopass", "patch"}, res.Candidate)
		assert.Len(t, res.Scores, 3)
		assert.False(t, res.HasMask())
		res.Close()
	}
}

func TestProcessNoWatermark(t *testing.T) {
	img := solid(pageSize.X, pageSize.Y, 120)
	defer img.Close()

	res, err := newRemover(t, config.Default()).Process(img)
	require.ErrorIs(t, err, ErrNoWatermark)
	assert.Nil(t, res)
}

func TestProcessWithMask(t *testing.T) {
	img := watermarkedPage()
	defer img.Close()

	res, err := newRemover(t, config.Default(), WithMask()).Process(img)
	require.NoError(t, err)
	defer res.Close()

	require.True(t, res.HasMask())
	assert.Equal(t, res.MaskPixels, gocv.CountNonZero(res.Mask))
}

func TestProcessWithCandidates(t *testing.T) {
	img := watermarkedPage()
	defer img.Close()

	cfg := config.Default()
	cfg.Post.Enabled = false
	identity := injected("identity")

	res, err := newRemover(t, cfg, WithCandidates([]Candidate{identity})).Process(img)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, "identity", res.Candidate)
	assert.Equal(t, img.ToBytes(), res.Image.ToBytes())
}

func TestProcessEmptyCandidates(t *testing.T) {
	img := watermarkedPage()
	defer img.Close()

	_, err := newRemover(t, config.Default(), WithCandidates(nil)).Process(img)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoWatermark)
}

func TestProcessMaskFile(t *testing.T) {
	// Пятно в центре страницы, куда эвристика не смотрит.
	spot := image.Rect(180, 130, 220, 160)

	tests := []struct {
		name   string
		page   func() gocv.Mat
		mode   config.MaskMode
		file   string
		wantPx int
	}{
		{"replace on plain page", func() gocv.Mat { return solid(pageSize.X, pageSize.Y, 120) }, config.MaskReplace,
			writeMaskFile(t, pageSize.X, pageSize.Y, spot), spot.Dx() * spot.Dy()},
		{"union with empty heuristic", func() gocv.Mat { return solid(pageSize.X, pageSize.Y, 120) }, config.MaskUnion,
			writeMaskFile(t, pageSize.X, pageSize.Y, spot), spot.Dx() * spot.Dy()},
		{"scaled to page", func() gocv.Mat { return solid(pageSize.X, pageSize.Y, 120) }, config.MaskReplace,
			writeMaskFile(t, pageSize.X/2, pageSize.Y/2, image.Rect(90, 65, 110, 80)), spot.Dx() * spot.Dy()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := tt.page()
			defer img.Close()

			cfg := config.Default()
			cfg.Mask.File, cfg.Mask.FileMode = tt.file, tt.mode

			res, err := newRemover(t, cfg, WithMask()).Process(img)
			require.NoError(t, err)
			defer res.Close()

			assert.Equal(t, tt.wantPx, res.MaskPixels)
			assert.Equal(t, uint8(255), res.Mask.GetUCharAt(145, 200))
			assert.Equal(t, uint8(0), res.Mask.GetUCharAt(5, 5))
		})
	}
}

func TestProcessMaskFileUnion(t *testing.T) {
	img := watermarkedPage()
	defer img.Close()

	cfg := config.Default()
	auto, err := newRemover(t, cfg).Process(img)
	require.NoError(t, err)
	autoPx := auto.MaskPixels
	auto.Close()

	spot := image.Rect(180, 130, 220, 160)
	cfg.Mask.File = writeMaskFile(t, pageSize.X, pageSize.Y, spot)
	res, err := newRemover(t, cfg).Process(img)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, autoPx+spot.Dx()*spot.Dy(), res.MaskPixels)
}

func TestProcessMaskFileEmpty(t *testing.T) {
	img := watermarkedPage()
	defer img.Close()

	cfg := config.Default()
	cfg.Mask.File, cfg.Mask.FileMode = writeMaskFile(t, 10, 10, image.Rectangle{}), config.MaskReplace

	_, err := newRemover(t, cfg).Process(img)
	require.ErrorIs(t, err, ErrNoWatermark, "replace ignores the light label")
}

func TestNewRemoverMissingMaskFile(t *testing.T) {
	cfg := config.Default()
	cfg.Mask.File = filepath.Join(t.TempDir(), "absent.png")

	_, err := NewRemover(cfg)
	require.ErrorIs(t, err, ErrEmptyImage)
}
