package config

import (
	"fmt"
	"image"
)

type Anchor string

const (
	AnchorTop         Anchor = "top"
	AnchorBottom      Anchor = "bottom"
	AnchorLeft        Anchor = "left"
	AnchorRight       Anchor = "right"
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
	AnchorCenter      Anchor = "center"
)

// Zone - прямоугольник у края изображения, размер задан долями. Полосы
// (top, bottom) идут на всю ширину и используют только Height, боковые зоны
// (left, right) идут на всю высоту и используют только Width.
type Zone struct {
	Name   string  `yaml:"name"`
	Anchor Anchor  `yaml:"anchor"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	// MinSide отсчитывает обе доли от min(width, height).
	MinSide bool `yaml:"min_side,omitempty"`
}

// Rect возвращает зону в пикселях изображения width x height, обрезанную по
// его границам. Размеры округляются к нулю.
func (z Zone) Rect(width, height int) image.Rectangle {
	baseW, baseH := width, height
	if z.MinSide {
		m := min(width, height)
		baseW, baseH = m, m
	}
	zw := int(z.Width * float64(baseW))
	zh := int(z.Height * float64(baseH))

	var r image.Rectangle
	switch z.Anchor {
	case AnchorTop:
		r = image.Rect(0, 0, width, zh)
	case AnchorBottom:
		r = image.Rect(0, height-zh, width, height)
	case AnchorLeft:
		r = image.Rect(0, 0, zw, height)
	case AnchorRight:
		r = image.Rect(width-zw, 0, width, height)
	case AnchorTopLeft:
		r = image.Rect(0, 0, zw, zh)
	case AnchorTopRight:
		r = image.Rect(width-zw, 0, width, zh)
	case AnchorBottomLeft:
		r = image.Rect(0, height-zh, zw, height)
	case AnchorBottomRight:
		r = image.Rect(width-zw, height-zh, width, height)
	case AnchorCenter:
		cx, cy := width/2, height/2
		r = image.Rect(cx-zw/2, cy-zh/2, cx+zw/2, cy+zh/2)
	}
	return r.Intersect(image.Rect(0, 0, width, height))
}

func (z Zone) Validate() error {
	switch z.Anchor {
	case AnchorTop, AnchorBottom:
		return checkFraction(z, "height", z.Height)
	case AnchorLeft, AnchorRight:
		return checkFraction(z, "width", z.Width)
	case AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight, AnchorCenter:
		if err := checkFraction(z, "width", z.Width); err != nil {
			return err
		}
		return checkFraction(z, "height", z.Height)
	default:
		return fmt.Errorf("%w: zone %q: unknown anchor %q", ErrInvalid, z.Name, z.Anchor)
	}
}

func checkFraction(z Zone, field string, v float64) error {
	if v <= 0 || v > 1 {
		return fmt.Errorf("%w: zone %q: %s must be within (0, 1], got %v", ErrInvalid, z.Name, field, v)
	}
	return nil
}
