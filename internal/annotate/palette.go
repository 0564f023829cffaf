package annotate

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is the cycle used when no palette is configured: red, blue,
// green, cyan, magenta, yellow.
var DefaultPalette = []string{"r", "b", "g", "c", "m", "y"}

// namedColors maps single-letter plot codes and common color names to hex.
// Single letters follow the classic plotting shorthands (g is a dark green,
// c/m/y are 75% intensity).
var namedColors = map[string]string{
	"r": "#FF0000",
	"g": "#008000",
	"b": "#0000FF",
	"c": "#00BFBF",
	"m": "#BF00BF",
	"y": "#BFBF00",
	"k": "#000000",
	"w": "#FFFFFF",

	"red":     "#FF0000",
	"green":   "#008000",
	"lime":    "#00FF00",
	"blue":    "#0000FF",
	"cyan":    "#00FFFF",
	"magenta": "#FF00FF",
	"yellow":  "#FFFF00",
	"black":   "#000000",
	"white":   "#FFFFFF",
	"orange":  "#FFA500",
	"purple":  "#800080",
	"pink":    "#FFC0CB",
	"brown":   "#A52A2A",
	"gray":    "#808080",
	"grey":    "#808080",
	"olive":   "#808000",
	"navy":    "#000080",
	"teal":    "#008080",
}

// contrastLightness is the CIE L* (0-1) above which a swatch gets dark text.
const contrastLightness = 0.6

// Swatch is one palette entry.
type Swatch struct {
	// Name is the entry as configured ("r", "orange", "#FF8800").
	Name string

	// Color is the opaque color of the entry.
	Color colorful.Color

	// Alpha is the entry's own opacity (0-1). Only hex entries with an alpha
	// byte are below 1.
	Alpha float64
}

// NRGBA returns the swatch color at its own opacity.
func (s Swatch) NRGBA() color.NRGBA {
	return s.WithAlpha(1)
}

// WithAlpha returns the swatch color with its opacity multiplied by alpha.
func (s Swatch) WithAlpha(alpha float64) color.NRGBA {
	r, g, b := s.Color.RGB255()
	a := math.Round(clamp01(s.Alpha*alpha) * 255)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a)}
}

// Foreground returns white or black, whichever contrasts with the swatch.
func (s Swatch) Foreground() color.NRGBA {
	l, _, _ := s.Color.Lab()
	if l > contrastLightness {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

// Palette is an ordered color cycle.
type Palette []Swatch

// At returns the swatch for the i-th detection: palette[i mod len(palette)].
// It depends only on i, never on class or score.
func (p Palette) At(i int) Swatch {
	n := len(p)
	idx := i % n
	if idx < 0 {
		idx += n
	}
	return p[idx]
}

// ParsePalette resolves color names, single-letter codes and hex strings
// ("#RRGGBB" or "#RRGGBBAA") into a Palette.
func ParsePalette(names []string) (Palette, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}

	p := make(Palette, 0, len(names))
	for _, name := range names {
		sw, err := parseSwatch(name)
		if err != nil {
			return nil, err
		}
		p = append(p, sw)
	}
	return p, nil
}

// MustParsePalette is ParsePalette for static palettes; it panics on error.
func MustParsePalette(names []string) Palette {
	p, err := ParsePalette(names)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSwatch(name string) (Swatch, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Swatch{}, fmt.Errorf("empty palette entry")
	}

	hex, ok := namedColors[key]
	if !ok {
		hex = key
	}
	c, err := parseHexColor(hex)
	if err != nil {
		return Swatch{}, fmt.Errorf("unknown palette color %q: %w", name, err)
	}

	opaque := color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	cf, _ := colorful.MakeColor(opaque)
	return Swatch{
		Name:  name,
		Color: cf,
		Alpha: float64(c.A) / 255,
	}, nil
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
// Both channels and alpha are non-premultiplied.
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// hexString formats c as "#RRGGBB", or "#RRGGBBAA" when it is not opaque.
func hexString(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", n.R, n.G, n.B, n.A)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
