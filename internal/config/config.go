package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid возвращается для любой конфигурации, с которой нельзя работать.
var ErrInvalid = errors.New("invalid config")

const (
	DefaultPreset  = "standard"
	DefaultDPI     = 200
	DefaultWorkers = 1
)

type Config struct {
	InputDir   string `yaml:"input"`
	OutputDir  string `yaml:"output"`
	Preset     string `yaml:"preset"`
	Workers    int    `yaml:"workers"`
	DPI        int    `yaml:"dpi"`
	Recursive  bool   `yaml:"recursive"`
	MaskDir    string `yaml:"mask_dir"`
	ReportPath string `yaml:"report"`
	LogLevel   string `yaml:"log_level"`
	Human      bool   `yaml:"human"`

	Mask    MaskConfig    `yaml:"mask"`
	Inpaint InpaintConfig `yaml:"inpaint"`
	Post    PostConfig    `yaml:"post"`

	BuildVersion string `yaml:"-"`
}

// MaskConfig управляет построением маски водяного знака.
type MaskConfig struct {
	Zones []Zone `yaml:"zones"`

	// Пиксели ярче LightCutoff (0-255) считаются светлым текстом.
	LightCutoff int `yaml:"light_cutoff"`

	Edges          bool `yaml:"edges"`
	CannyLow       int  `yaml:"canny_low"`
	CannyHigh      int  `yaml:"canny_high"`
	EdgeKernel     int  `yaml:"edge_kernel"`
	EdgeIterations int  `yaml:"edge_iterations"`

	// MorphKernel - размер ядра closing/opening, 0 выключает обе операции.
	MorphKernel      int `yaml:"morph_kernel"`
	DilateIterations int `yaml:"dilate_iterations"`

	// File - готовая маска (белое = заливать), масштабируется под каждую
	// страницу. FileMode: union (по умолчанию) или replace.
	File     string   `yaml:"file"`
	FileMode MaskMode `yaml:"file_mode"`
}

type MaskMode string

const (
	MaskUnion   MaskMode = "union"
	MaskReplace MaskMode = "replace"
)

type InpaintConfig struct {
	TeleaRadius float64 `yaml:"telea_radius"`
	NSRadius    float64 `yaml:"ns_radius"`
	BlendWeight float64 `yaml:"blend_weight"` // доля Telea в смеси
	PatchRadius float64 `yaml:"patch_radius"`
	MinArea     float64 `yaml:"min_area"`
	MinPad      int     `yaml:"min_pad"`
	PadRatio    float64 `yaml:"pad_ratio"`

	// Последовательная заливка: сначала Telea, затем NS по результату.
	TwoPassTelea float64 `yaml:"two_pass_telea"`
	TwoPassNS    float64 `yaml:"two_pass_ns"`
}

type PostConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Diameter      int     `yaml:"diameter"`
	SigmaColor    float64 `yaml:"sigma_color"`
	SigmaSpace    float64 `yaml:"sigma_space"`
	SharpenWeight float64 `yaml:"sharpen_weight"`
}

// Default возвращает конфигурацию пресета standard.
func Default() *Config {
	mask, _ := Preset(DefaultPreset)
	return &Config{
		Preset:   DefaultPreset,
		Workers:  DefaultWorkers,
		DPI:      DefaultDPI,
		LogLevel: "info",
		Human:    true,
		Mask:     mask,
		Inpaint: InpaintConfig{
			TeleaRadius:  5,
			NSRadius:     5,
			BlendWeight:  0.6,
			PatchRadius:  7,
			MinArea:      100,
			MinPad:       20,
			PadRatio:     0.5,
			TwoPassTelea: 7,
			TwoPassNS:    5,
		},
		Post: PostConfig{
			Enabled:       true,
			Diameter:      9,
			SigmaColor:    50,
			SigmaSpace:    50,
			SharpenWeight: 0.2,
		},
	}
}

// LoadOptions задает источники конфигурации. Флаги применяет вызывающий
// код после Load.
type LoadOptions struct {
	File   string
	Preset string
	Lookup func(key string) (string, bool)
}

// Load собирает конфигурацию: значения по умолчанию, пресет, YAML-файл,
// затем переменные окружения.
func Load(opts LoadOptions) (*Config, error) {
	var data []byte
	var head struct {
		Preset string `yaml:"preset"`
	}
	if opts.File != "" {
		var err error
		data, err = os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, opts.File, err)
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	name := firstNonEmpty(opts.Preset, envString(lookup, EnvPreset), head.Preset, DefaultPreset)

	cfg := Default()
	if err := cfg.ApplyPreset(name); err != nil {
		return nil, err
	}

	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, opts.File, err)
		}
		cfg.Preset = name
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyPreset заменяет настройки маски пресетом name. Маска из файла
// сохраняется.
func (c *Config) ApplyPreset(name string) error {
	mask, err := Preset(name)
	if err != nil {
		return err
	}
	mask.File, mask.FileMode = c.Mask.File, c.Mask.FileMode
	c.Preset = name
	c.Mask = mask
	return nil
}

func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("%w: input directory is required", ErrInvalid)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalid)
	}
	if err := checkDirs(c.InputDir, c.OutputDir, c.Recursive); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("%w: dpi must be positive, got %d", ErrInvalid, c.DPI)
	}
	if err := c.Mask.Validate(); err != nil {
		return err
	}
	if err := c.Inpaint.Validate(); err != nil {
		return err
	}
	return c.Post.Validate()
}

func (m MaskConfig) Validate() error {
	switch m.FileMode {
	case "", MaskUnion, MaskReplace:
	default:
		return fmt.Errorf("%w: mask file_mode %q (want union or replace)", ErrInvalid, m.FileMode)
	}
	if m.FileMode == MaskReplace && m.File == "" {
		return fmt.Errorf("%w: mask file_mode replace requires mask file", ErrInvalid)
	}
	if len(m.Zones) == 0 && !m.replaced() {
		return fmt.Errorf("%w: at least one zone is required", ErrInvalid)
	}
	for _, z := range m.Zones {
		if err := z.Validate(); err != nil {
			return err
		}
	}
	if m.LightCutoff < 0 || m.LightCutoff > 255 {
		return fmt.Errorf("%w: light_cutoff must be within 0..255, got %d", ErrInvalid, m.LightCutoff)
	}
	if m.Edges {
		if m.CannyLow < 0 || m.CannyHigh < m.CannyLow {
			return fmt.Errorf("%w: canny thresholds %d/%d", ErrInvalid, m.CannyLow, m.CannyHigh)
		}
		if m.EdgeKernel < 1 || m.EdgeIterations < 0 {
			return fmt.Errorf("%w: edge kernel %d, iterations %d", ErrInvalid, m.EdgeKernel, m.EdgeIterations)
		}
	}
	if m.MorphKernel < 0 || m.DilateIterations < 0 {
		return fmt.Errorf("%w: morph_kernel %d, dilate_iterations %d", ErrInvalid, m.MorphKernel, m.DilateIterations)
	}
	return nil
}

// replaced сообщает, что эвристика не используется: маска целиком из файла.
func (m MaskConfig) replaced() bool {
	return m.File != "" && m.FileMode == MaskReplace
}

// SetMargin задает глубину всех полос и боковых зон. Угловые и центральная
// зоны сохраняют размер.
func (m *MaskConfig) SetMargin(f float64) {
	for i := range m.Zones {
		switch m.Zones[i].Anchor {
		case AnchorTop, AnchorBottom:
			m.Zones[i].Height = f
		case AnchorLeft, AnchorRight:
			m.Zones[i].Width = f
		}
	}
}

func (p InpaintConfig) Validate() error {
	if p.TeleaRadius <= 0 || p.NSRadius <= 0 || p.PatchRadius <= 0 || p.TwoPassTelea <= 0 || p.TwoPassNS <= 0 {
		return fmt.Errorf("%w: inpaint radii must be positive", ErrInvalid)
	}
	if p.BlendWeight < 0 || p.BlendWeight > 1 {
		return fmt.Errorf("%w: blend_weight must be within 0..1, got %v", ErrInvalid, p.BlendWeight)
	}
	if p.MinArea < 0 || p.MinPad < 0 || p.PadRatio < 0 {
		return fmt.Errorf("%w: patch limits must not be negative", ErrInvalid)
	}
	return nil
}

func (p PostConfig) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Diameter < 1 {
		return fmt.Errorf("%w: bilateral diameter must be >= 1, got %d", ErrInvalid, p.Diameter)
	}
	if p.SharpenWeight < 0 || p.SharpenWeight > 1 {
		return fmt.Errorf("%w: sharpen_weight must be within 0..1, got %v", ErrInvalid, p.SharpenWeight)
	}
	return nil
}

// checkDirs отклоняет папку результата, которая перезапишет вход или
// попадет в него при рекурсивном обходе.
func checkDirs(input, output string, recursive bool) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("%w: input %s: %v", ErrInvalid, input, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("%w: output %s: %v", ErrInvalid, output, err)
	}
	if in == out {
		return fmt.Errorf("%w: output directory must differ from input (%s)", ErrInvalid, in)
	}
	if recursive && strings.HasPrefix(out, in+string(filepath.Separator)) {
		return fmt.Errorf("%w: output %s is inside input %s in recursive mode", ErrInvalid, out, in)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
