package render

import (
	"fmt"
	"image/color"
	"strconv"
	"sync"

	"github.com/fogleman/gg"

	"github.com/heat-tiles/server/pkg/gradient"
)

// Default legend strip dimensions.
const (
	DefaultLegendWidth  = 280
	DefaultLegendHeight = 40

	MinLegendWidth  = 60
	MinLegendHeight = 24
	MaxLegendWidth  = 2000
	MaxLegendHeight = 400
)

// LegendRenderer draws gradient legend strips. Contexts for the default
// size come from a pool; custom sizes allocate a fresh context.
type LegendRenderer struct {
	encoder     *Encoder
	contextPool sync.Pool
}

// NewLegendRenderer creates a legend renderer sharing the given encoder.
func NewLegendRenderer(enc *Encoder) *LegendRenderer {
	return &LegendRenderer{
		encoder: enc,
		contextPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(DefaultLegendWidth, DefaultLegendHeight)
			},
		},
	}
}

// Draw renders a horizontal gradient ramp with the scale's end labels and
// returns it as PNG bytes.
func (l *LegendRenderer) Draw(g gradient.Gradient, max float64, width, height int) ([]byte, error) {
	if width < MinLegendWidth || width > MaxLegendWidth ||
		height < MinLegendHeight || height > MaxLegendHeight {
		return nil, fmt.Errorf("legend: size %dx%d outside [%dx%d, %dx%d]",
			width, height, MinLegendWidth, MinLegendHeight, MaxLegendWidth, MaxLegendHeight)
	}

	var dc *gg.Context
	if width == DefaultLegendWidth && height == DefaultLegendHeight {
		dc = l.contextPool.Get().(*gg.Context)
		defer l.contextPool.Put(dc)
	} else {
		dc = gg.NewContext(width, height)
	}

	// Clear canvas with white background
	dc.SetColor(color.White)
	dc.Clear()

	rampX := 10.0
	rampW := float64(width) - 2*rampX
	rampY := 6.0
	rampH := float64(height) - 24
	if rampH < 6 {
		rampH = 6
	}

	lut := g.LUT(1)
	for i := 0.0; i < rampW; i++ {
		idx := int(i / (rampW - 1) * float64(len(lut)-1))
		dc.SetColor(lut[idx])
		dc.DrawRectangle(rampX+i, rampY, 1, rampH)
		dc.Fill()
	}

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1)
	dc.DrawRectangle(rampX, rampY, rampW, rampH)
	dc.Stroke()

	labelY := rampY + rampH + 9
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("0", rampX, labelY, 0, 0.5)
	dc.DrawStringAnchored(strconv.FormatFloat(max, 'g', 4, 64), rampX+rampW, labelY, 1, 0.5)

	return l.encoder.EncodePNG(dc.Image())
}
