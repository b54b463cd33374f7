package render

import (
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// fallbackColor is used for colors that cannot be parsed.
var fallbackColor = drawing.ColorFromHex("2962ff")

// ParseColor converts a css color (#rgb, #rrggbb, rgb(), rgba() or a known name)
// and applies the opacity multiplier to its alpha channel. An opacity outside
// (0, 1) leaves the color opaque.
func ParseColor(raw string, opacity float64) drawing.Color {
	c := parseCSS(strings.TrimSpace(raw))
	if opacity <= 0 || opacity >= 1 {
		return c
	}
	return c.WithAlpha(uint8(math.Round(float64(c.A) * opacity)))
}

func parseCSS(raw string) drawing.Color {
	switch {
	case raw == "":
		return fallbackColor
	case strings.HasPrefix(raw, "#"):
		hex := raw[1:]
		if (len(hex) != 3 && len(hex) != 6) || strings.Trim(strings.ToLower(hex), "0123456789abcdef") != "" {
			logger.Debugf("unparsable color %q", raw)
			return fallbackColor
		}
		return drawing.ColorFromHex(hex)
	case strings.HasPrefix(raw, "rgb"):
		return drawing.ParseColor(raw)
	}

	c := drawing.ColorFromKnown(raw)
	if c.IsZero() {
		return fallbackColor
	}
	return c
}
