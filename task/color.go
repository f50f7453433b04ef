package task

import (
	internalstrings "github.com/amonks/taskmate/internal/strings"
	"github.com/amonks/taskmate/internal/validation"
)

// Color is a task background color.
type Color string

const (
	ColorWhite  Color = "white"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
)

// Palette lists every valid color in display order.
func Palette() []Color {
	return []Color{ColorWhite, ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorPurple, ColorPink}
}

var paletteHex = map[Color]string{
	ColorWhite:  "#FFFFFF",
	ColorRed:    "#F28B82",
	ColorOrange: "#FBBC04",
	ColorYellow: "#FFF475",
	ColorGreen:  "#CCFF90",
	ColorBlue:   "#AECBFA",
	ColorPurple: "#D7AEFB",
	ColorPink:   "#FDCFE8",
}

// IsValid returns true if the color is in the palette.
func (c Color) IsValid() bool {
	_, ok := paletteHex[c]
	return ok
}

// Hex returns the color's swatch value.
func (c Color) Hex() string {
	return paletteHex[c]
}

// ParseColor normalizes a color name. Empty means white.
func ParseColor(value string) (Color, error) {
	normalized := Color(internalstrings.NormalizeLowerTrimSpace(value))
	if normalized == "" {
		return ColorWhite, nil
	}
	if !normalized.IsValid() {
		return "", validation.FormatInvalidValueError(ErrInvalidColor, Color(value), Palette())
	}
	return normalized, nil
}

