package config

import (
	"fmt"
	"slices"
	"sort"
)

// Пресеты без контуров все равно несут параметры Canny, чтобы -edges
// включал их без дополнительных флагов.
var presets = map[string]MaskConfig{
	// Поля страницы со всех сторон, светлый текст и контуры.
	"standard": {
		Zones: []Zone{
			{Name: "top", Anchor: AnchorTop, Height: 0.15},
			{Name: "bottom", Anchor: AnchorBottom, Height: 0.15},
			{Name: "left", Anchor: AnchorLeft, Width: 0.15},
			{Name: "right", Anchor: AnchorRight, Width: 0.15},
		},
		LightCutoff:    220,
		Edges:          true,
		CannyLow:       30,
		CannyHigh:      100,
		EdgeKernel:     3,
		EdgeIterations: 1,
		MorphKernel:    5,
	},
	// То же плюс центральная область (водяные знаки по центру листа).
	"pro": {
		Zones: []Zone{
			{Name: "top", Anchor: AnchorTop, Height: 0.15},
			{Name: "bottom", Anchor: AnchorBottom, Height: 0.15},
			{Name: "left", Anchor: AnchorLeft, Width: 0.15},
			{Name: "right", Anchor: AnchorRight, Width: 0.15},
			{Name: "center", Anchor: AnchorCenter, Width: 0.5, Height: 0.5},
		},
		LightCutoff:    220,
		Edges:          true,
		CannyLow:       30,
		CannyHigh:      100,
		EdgeKernel:     3,
		EdgeIterations: 1,
		MorphKernel:    5,
	},
	// Логотип NotebookLM в правом нижнем углу и шапка страницы.
	"notebooklm": {
		Zones: []Zone{
			{Name: "bottom-right", Anchor: AnchorBottomRight, Width: 0.15, Height: 0.08},
			{Name: "header", Anchor: AnchorTop, Height: 0.08},
		},
		LightCutoff:      200,
		CannyLow:         30,
		CannyHigh:        100,
		EdgeKernel:       3,
		EdgeIterations:   1,
		MorphKernel:      5,
		DilateIterations: 1,
	},
	// Широкие поля, низкий порог, двойное расширение контуров.
	"aggressive": {
		Zones: []Zone{
			{Name: "top", Anchor: AnchorTop, Height: 0.15},
			{Name: "bottom", Anchor: AnchorBottom, Height: 0.20},
			{Name: "left", Anchor: AnchorLeft, Width: 0.10},
			{Name: "right", Anchor: AnchorRight, Width: 0.10},
		},
		LightCutoff:    180,
		Edges:          true,
		CannyLow:       30,
		CannyHigh:      100,
		EdgeKernel:     3,
		EdgeIterations: 2,
		MorphKernel:    7,
	},
	// Узкие полосы и квадраты по углам от меньшей стороны.
	"corners": {
		Zones: []Zone{
			{Name: "top", Anchor: AnchorTop, Height: 0.10},
			{Name: "bottom", Anchor: AnchorBottom, Height: 0.10},
			{Name: "top-left", Anchor: AnchorTopLeft, Width: 0.15, Height: 0.15, MinSide: true},
			{Name: "top-right", Anchor: AnchorTopRight, Width: 0.15, Height: 0.15, MinSide: true},
			{Name: "bottom-left", Anchor: AnchorBottomLeft, Width: 0.15, Height: 0.15, MinSide: true},
			{Name: "bottom-right", Anchor: AnchorBottomRight, Width: 0.15, Height: 0.15, MinSide: true},
		},
		LightCutoff:    220,
		CannyLow:       30,
		CannyHigh:      100,
		EdgeKernel:     3,
		EdgeIterations: 1,
	},
}

// Preset возвращает копию пресета маски name.
func Preset(name string) (MaskConfig, error) {
	p, ok := presets[name]
	if !ok {
		return MaskConfig{}, fmt.Errorf("%w: unknown preset %q (known: %v)", ErrInvalid, name, PresetNames())
	}
	p.Zones = slices.Clone(p.Zones)
	return p, nil
}

// PresetNames возвращает имена пресетов по алфавиту.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
