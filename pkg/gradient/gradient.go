// Package gradient builds color lookup tables from ordered color stops.
package gradient

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// LUTSize is the number of entries in a generated lookup table.
const LUTSize = 1000

// Stop is a single color stop at a fractional offset in [0, 1].
type Stop struct {
	Color  color.RGBA
	Offset float64
}

// Gradient is an ordered list of color stops.
type Gradient struct {
	stops []Stop
}

// New builds a gradient from stops. Stops are sorted by offset and every
// offset must lie in [0, 1]; at least one stop is required.
func New(stops []Stop) (Gradient, error) {
	if len(stops) == 0 {
		return Gradient{}, errors.New("gradient: no color stops")
	}
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for _, s := range sorted {
		if s.Offset < 0 || s.Offset > 1 {
			return Gradient{}, fmt.Errorf("gradient: stop offset %v outside [0, 1]", s.Offset)
		}
	}
	return Gradient{stops: sorted}, nil
}

// Stops returns the gradient's stops in offset order.
func (g Gradient) Stops() []Stop {
	out := make([]Stop, len(g.stops))
	copy(out, g.stops)
	return out
}

// span is one linear segment of the rendered table.
type span struct {
	start  int
	length float64
	c1, c2 color.RGBA
}

func (g Gradient) spans() []span {
	out := make([]span, 0, len(g.stops)+1)
	first := g.stops[0]
	if first.Offset > 0 {
		// Ramp up from a fully transparent first color so weights below
		// the first stop fade out instead of snapping to it.
		from := first.Color
		from.A = 0
		out = append(out, span{start: 0, length: float64(LUTSize) * first.Offset, c1: from, c2: first.Color})
	}
	for i := 0; i < len(g.stops)-1; i++ {
		a, b := g.stops[i], g.stops[i+1]
		if b.Offset <= a.Offset {
			continue
		}
		out = append(out, span{
			start:  int(float64(LUTSize) * a.Offset),
			length: float64(LUTSize) * (b.Offset - a.Offset),
			c1:     a.Color,
			c2:     b.Color,
		})
	}
	last := g.stops[len(g.stops)-1]
	if last.Offset < 1 {
		out = append(out, span{
			start:  int(float64(LUTSize) * last.Offset),
			length: float64(LUTSize) * (1 - last.Offset),
			c1:     last.Color,
			c2:     last.Color,
		})
	}
	return out
}

// LUT renders the gradient into a LUTSize-entry color table. Every entry's
// alpha is scaled by opacity.
func (g Gradient) LUT(opacity float64) []color.RGBA {
	lut := make([]color.RGBA, LUTSize)
	if len(g.stops) == 0 {
		return lut
	}
	spans := g.spans()
	cur := 0
	for i := 0; i < LUTSize; i++ {
		for cur+1 < len(spans) && i >= spans[cur+1].start {
			cur++
		}
		s := spans[cur]
		t := 0.0
		if s.length > 0 {
			t = float64(i-s.start) / s.length
		}
		lut[i] = lerp(s.c1, s.c2, t)
	}
	if opacity != 1 {
		for i := range lut {
			lut[i].A = uint8(float64(lut[i].A) * opacity)
		}
	}
	return lut
}

func lerp(c1, c2 color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c1.R) + t*(float64(c2.R)-float64(c1.R))),
		G: uint8(float64(c1.G) + t*(float64(c2.G)-float64(c1.G))),
		B: uint8(float64(c1.B) + t*(float64(c2.B)-float64(c1.B))),
		A: uint8(float64(c1.A) + t*(float64(c2.A)-float64(c1.A))),
	}
}

// ParseHex parses "#RRGGBB" or "#RRGGBBAA" into an RGBA color.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("gradient: bad hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("gradient: bad hex color %q", s)
	}
	c := color.RGBA{A: 255}
	if len(h) == 8 {
		c.A = uint8(v)
		v >>= 8
	}
	c.B = uint8(v)
	c.G = uint8(v >> 8)
	c.R = uint8(v >> 16)
	return c, nil
}

// FormatHex renders a color as "#RRGGBB", or "#RRGGBBAA" when not opaque.
func FormatHex(c color.RGBA) string {
	if c.A != 255 {
		return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

type stopJSON struct {
	Color  string  `json:"color"`
	Offset float64 `json:"offset"`
}

// MarshalJSON encodes the stop as {"color": "#RRGGBB", "offset": n}.
func (s Stop) MarshalJSON() ([]byte, error) {
	return json.Marshal(stopJSON{Color: FormatHex(s.Color), Offset: s.Offset})
}

// UnmarshalJSON decodes a stop from {"color": "#RRGGBB", "offset": n}.
func (s *Stop) UnmarshalJSON(data []byte) error {
	var raw stopJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c, err := ParseHex(raw.Color)
	if err != nil {
		return err
	}
	s.Color = c
	s.Offset = raw.Offset
	return nil
}

// MarshalJSON encodes the gradient as its stop array.
func (g Gradient) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.stops)
}

// UnmarshalJSON decodes and validates a stop array.
func (g *Gradient) UnmarshalJSON(data []byte) error {
	var stops []Stop
	if err := json.Unmarshal(data, &stops); err != nil {
		return err
	}
	ng, err := New(stops)
	if err != nil {
		return err
	}
	*g = ng
	return nil
}

// Default is the standard heatmap gradient: green rising to red.
var Default = mustNew([]Stop{
	{Color: color.RGBA{R: 102, G: 225, B: 0, A: 255}, Offset: 0.2},
	{Color: color.RGBA{R: 255, G: 0, B: 0, A: 255}, Offset: 1.0},
})

// Fire is a five-stop green/yellow/orange/red ramp suited to dense data.
var Fire = mustNew([]Stop{
	{Color: color.RGBA{R: 0x79, G: 0xBC, B: 0x6A, A: 255}, Offset: 0},
	{Color: color.RGBA{R: 0xBB, G: 0xCF, B: 0x4C, A: 255}, Offset: 0.25},
	{Color: color.RGBA{R: 0xEE, G: 0xC2, B: 0x0B, A: 255}, Offset: 0.5},
	{Color: color.RGBA{R: 0xF2, G: 0x93, B: 0x05, A: 255}, Offset: 0.75},
	{Color: color.RGBA{R: 0xE5, G: 0x00, B: 0x00, A: 255}, Offset: 1},
})

func mustNew(stops []Stop) Gradient {
	g, err := New(stops)
	if err != nil {
		panic(err)
	}
	return g
}
