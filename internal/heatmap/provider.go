package heatmap

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/heat-tiles/server/pkg/gradient"
)

// Builder assembles a validated Provider. Setters only record values;
// validation happens in Build so a bad parameter never reaches render time.
type Builder struct {
	points       []WeightedPoint
	havePoints   bool
	radius       int
	gradient     gradient.Gradient
	opacity      float64
	smoothing    float64
	maxIntensity float64
}

// NewBuilder returns a Builder with the default render parameters.
func NewBuilder() *Builder {
	return &Builder{
		radius:    DefaultRadius,
		gradient:  gradient.Default,
		opacity:   DefaultOpacity,
		smoothing: DefaultSmoothing,
	}
}

// Data sets unweighted input points; every point gets weight 1.
func (b *Builder) Data(points []Point) *Builder {
	return b.WeightedData(Weighted(points))
}

// WeightedData sets the points to render.
func (b *Builder) WeightedData(points []WeightedPoint) *Builder {
	b.points = points
	b.havePoints = true
	return b
}

// Radius sets the convolution radius in pixels.
func (b *Builder) Radius(radius int) *Builder {
	b.radius = radius
	return b
}

// Gradient sets the color gradient.
func (b *Builder) Gradient(g gradient.Gradient) *Builder {
	b.gradient = g
	return b
}

// Opacity sets the tile opacity in [0, 1].
func (b *Builder) Opacity(opacity float64) *Builder {
	b.opacity = opacity
	return b
}

// Smoothing sets the kernel smoothing factor.
func (b *Builder) Smoothing(smoothing float64) *Builder {
	b.smoothing = smoothing
	return b
}

// MaxIntensity fixes the weight that maps to the top of the gradient at
// every zoom. Zero keeps per-zoom auto calibration.
func (b *Builder) MaxIntensity(maxIntensity float64) *Builder {
	b.maxIntensity = maxIntensity
	return b
}

// Build validates the configuration and assembles the Provider.
func (b *Builder) Build() (*Provider, error) {
	if !b.havePoints {
		return nil, ErrNoData
	}
	if len(b.points) == 0 {
		return nil, ErrEmptyData
	}
	if b.radius < MinRadius {
		return nil, fmt.Errorf("%w: %d < %d", ErrRadiusTooSmall, b.radius, MinRadius)
	}
	if b.opacity < 0 || b.opacity > 1 {
		return nil, fmt.Errorf("%w: %v", ErrOpacityRange, b.opacity)
	}
	if b.maxIntensity < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeMaxIntensity, b.maxIntensity)
	}

	p := &Provider{
		gradient:     b.gradient,
		opacity:      b.opacity,
		smoothing:    b.smoothing,
		radius:       b.radius,
		maxIntensity: b.maxIntensity,
		points:       append([]WeightedPoint(nil), b.points...),
	}
	p.rebuildLocked()
	return p, nil
}

// Provider renders heatmap tiles from a weighted point set. It is safe for
// concurrent use: Render reads an immutable snapshot without locking, and
// mutators swap in a replacement while in-flight renders finish against the
// old one.
type Provider struct {
	mu sync.Mutex

	gradient     gradient.Gradient
	opacity      float64
	smoothing    float64
	radius       int
	maxIntensity float64
	points       []WeightedPoint

	snap atomic.Pointer[snapshot]
}

// Render draws the tile at (x, y, zoom). A nil image means the tile cannot
// contain any heat.
func (p *Provider) Render(x, y, zoom int) *image.RGBA {
	return p.snap.Load().renderTile(x, y, zoom)
}

// SetData replaces the dataset with unweighted points.
func (p *Provider) SetData(points []Point) error {
	return p.SetWeightedData(Weighted(points))
}

// SetWeightedData replaces the dataset, rebuilding the spatial index and
// the max intensity table.
func (p *Provider) SetWeightedData(points []WeightedPoint) error {
	if len(points) == 0 {
		return ErrEmptyData
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.points = append([]WeightedPoint(nil), points...)
	p.rebuildLocked()
	return nil
}

// SetRadius changes the convolution radius and recalibrates the max
// intensity table.
func (p *Provider) SetRadius(radius int) error {
	if radius < MinRadius {
		return fmt.Errorf("%w: %d < %d", ErrRadiusTooSmall, radius, MinRadius)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.radius = radius
	s := *p.snap.Load()
	s.radius = radius
	s.maxIntensities = p.buildTable(s.bounds)
	p.snap.Store(&s)
	return nil
}

// SetGradient replaces the color gradient.
func (p *Provider) SetGradient(g gradient.Gradient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gradient = g
	s := *p.snap.Load()
	s.lut = g.LUT(p.opacity)
	p.snap.Store(&s)
}

// SetOpacity changes the tile opacity and regenerates the color table.
func (p *Provider) SetOpacity(opacity float64) error {
	if opacity < 0 || opacity > 1 {
		return fmt.Errorf("%w: %v", ErrOpacityRange, opacity)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opacity = opacity
	s := *p.snap.Load()
	s.lut = p.gradient.LUT(opacity)
	p.snap.Store(&s)
	return nil
}

// SetMaxIntensity fixes the gradient-top weight at every zoom. Setting zero
// clears the override and recalibrates per zoom.
func (p *Provider) SetMaxIntensity(maxIntensity float64) error {
	if maxIntensity < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeMaxIntensity, maxIntensity)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxIntensity = maxIntensity
	s := *p.snap.Load()
	s.maxIntensities = p.buildTable(s.bounds)
	p.snap.Store(&s)
	return nil
}

// Bounds returns the dataset bounding box.
func (p *Provider) Bounds() Bounds {
	return p.snap.Load().bounds
}

// Data returns a copy of the current dataset.
func (p *Provider) Data() []WeightedPoint {
	s := p.snap.Load()
	return append([]WeightedPoint(nil), s.points...)
}

// MaxIntensities returns the current per-zoom calibration table.
func (p *Provider) MaxIntensities() MaxIntensityTable {
	return p.snap.Load().maxIntensities
}

// Radius returns the convolution radius in pixels.
func (p *Provider) Radius() int {
	return p.snap.Load().radius
}

// Smoothing returns the kernel smoothing factor.
func (p *Provider) Smoothing() float64 {
	return p.snap.Load().smoothing
}

// Opacity returns the tile opacity.
func (p *Provider) Opacity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opacity
}

// Gradient returns the current color gradient.
func (p *Provider) Gradient() gradient.Gradient {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gradient
}

// MaxIntensity returns the fixed override, or zero when auto calibrating.
func (p *Provider) MaxIntensity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxIntensity
}

// rebuildLocked recomputes every derived structure from p.points. Callers
// must hold p.mu (Build is exempt, nothing else can see the Provider yet).
func (p *Provider) rebuildLocked() {
	bounds := BoundsOf(p.points)
	p.snap.Store(&snapshot{
		points:         p.points,
		index:          NewIndex(bounds, p.points),
		bounds:         bounds,
		radius:         p.radius,
		smoothing:      p.smoothing,
		lut:            p.gradient.LUT(p.opacity),
		maxIntensities: p.buildTable(bounds),
	})
}

func (p *Provider) buildTable(bounds Bounds) MaxIntensityTable {
	if p.maxIntensity > 0 {
		return uniformMaxIntensities(p.maxIntensity)
	}
	return computeMaxIntensities(p.points, bounds, p.radius)
}
