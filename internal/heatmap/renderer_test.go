package heatmap

import (
	"testing"
)

// buildProvider is a test helper around the Builder chain.
func buildProvider(t *testing.T, points []WeightedPoint, opts func(*Builder) *Builder) *Provider {
	t.Helper()
	b := NewBuilder().WeightedData(points)
	if opts != nil {
		b = opts(b)
	}
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func TestMergeCell(t *testing.T) {
	first := mergeCell(cell{}, 0.3, 7)
	if first.intensity != 0.3 || first.weight != 7 {
		t.Errorf("first write = %+v, want {0.3 7}", first)
	}

	merged := mergeCell(cell{intensity: 0.5, weight: 10}, 0.5, 20)
	if merged.intensity != 1 {
		t.Errorf("merged intensity = %v, want 1", merged.intensity)
	}
	if merged.weight != 15 {
		t.Errorf("merged weight = %v, want 15 (weighted average)", merged.weight)
	}

	capped := mergeCell(cell{intensity: 0.8, weight: 5}, 0.9, 5)
	if capped.intensity != 1 {
		t.Errorf("intensity = %v, want cap at 1", capped.intensity)
	}
}

func TestRenderKernelShape(t *testing.T) {
	// One weight-1 point at pixel (200, 300) of the zoom-0 tile. With the
	// max intensity fixed at the point's own pixel weight, the center
	// pixel saturates and alpha falls off with distance.
	point := WeightedPoint{Point: Point{X: 200.5 / 512, Y: 300.5 / 512}, Weight: 1}
	p := buildProvider(t, []WeightedPoint{point}, func(b *Builder) *Builder {
		return b.Opacity(1).MaxIntensity(1)
	})

	img := p.Render(0, 0, 0)
	if img == nil {
		t.Fatal("Render returned nil for a tile containing the point")
	}

	if a := img.RGBAAt(200, 300).A; a != 255 {
		t.Errorf("center alpha = %d, want 255", a)
	}

	alphas := []uint8{
		img.RGBAAt(200, 300).A,
		img.RGBAAt(205, 300).A,
		img.RGBAAt(210, 300).A,
		img.RGBAAt(215, 300).A,
	}
	for i := 1; i < len(alphas); i++ {
		if alphas[i] >= alphas[i-1] {
			t.Errorf("alpha must fall with distance: %v", alphas)
		}
	}
	if alphas[3] == 0 {
		t.Error("pixel 15 away still inside the kernel, alpha must be positive")
	}

	// The kernel window spans [-radius, radius) around the point.
	if a := img.RGBAAt(180, 300).A; a == 0 {
		t.Error("pixel at -radius must be inside the window")
	}
	if a := img.RGBAAt(179, 300).A; a != 0 {
		t.Errorf("pixel below -radius has alpha %d, want 0", a)
	}
	if a := img.RGBAAt(220, 300).A; a != 0 {
		t.Errorf("pixel at +radius has alpha %d, want 0", a)
	}
}

func TestRenderEmptyTiles(t *testing.T) {
	points := []WeightedPoint{
		{Point: Point{X: 0.4, Y: 0.4}, Weight: 1},
		{Point: Point{X: 0.6, Y: 0.6}, Weight: 1},
	}
	p := buildProvider(t, points, nil)

	// Far outside the dataset's padded bounds.
	if img := p.Render(0, 0, 5); img != nil {
		t.Error("tile far from data must render nil")
	}

	// Inside the bounds but between the two points: the range query comes
	// back empty.
	if img := p.Render(512, 512, 10); img != nil {
		t.Error("tile with no points in range must render nil")
	}

	// And a tile actually containing a point renders.
	if img := p.Render(0, 0, 1); img == nil {
		t.Error("tile containing a point must render")
	}
}

func TestRenderWeightOrdersColor(t *testing.T) {
	// Four well-separated points. With max intensity fixed at 100 the
	// heavier points select entries further up the gradient.
	points := []WeightedPoint{
		{Point: Point{X: 100.5 / 512, Y: 100.5 / 512}, Weight: 99},
		{Point: Point{X: 200.5 / 512, Y: 200.5 / 512}, Weight: 15},
		{Point: Point{X: 300.5 / 512, Y: 300.5 / 512}, Weight: 1},
		{Point: Point{X: 400.5 / 512, Y: 400.5 / 512}, Weight: 10},
	}
	p := buildProvider(t, points, func(b *Builder) *Builder {
		return b.Opacity(1).MaxIntensity(100)
	})

	img := p.Render(0, 0, 0)
	if img == nil {
		t.Fatal("Render returned nil")
	}

	a99 := img.RGBAAt(100, 100)
	a15 := img.RGBAAt(200, 200)
	a1 := img.RGBAAt(300, 300)
	a10 := img.RGBAAt(400, 400)

	if !(a99.A > a15.A && a15.A > a10.A && a10.A > a1.A && a1.A > 0) {
		t.Errorf("alpha order wrong: w99=%d w15=%d w10=%d w1=%d", a99.A, a15.A, a10.A, a1.A)
	}
	if a99.A != 255 {
		t.Errorf("heaviest point alpha = %d, want 255", a99.A)
	}
	if a99.R <= a15.R {
		t.Errorf("heaviest point must sit higher on the gradient: R %d vs %d", a99.R, a15.R)
	}
	if a1.G != 225 {
		t.Errorf("lightest point green = %d, want the gradient's first color", a1.G)
	}
}

func TestRenderAntimeridianWrap(t *testing.T) {
	// One point just west of the antimeridian, one just east. Tiles on
	// either edge of the world must receive heat from the far side.
	west := WeightedPoint{Point: Point{X: 0.999, Y: 0.30}, Weight: 1}
	east := WeightedPoint{Point: Point{X: 0.001, Y: 0.35}, Weight: 1}
	p := buildProvider(t, []WeightedPoint{west, east}, func(b *Builder) *Builder {
		return b.Opacity(1).MaxIntensity(1)
	})

	// Zoom 2, tile x=0: the extended query dips below x=0 and wraps to
	// the west point, which lands left of the tile at grid x -3.
	left := p.Render(0, 1, 2)
	if left == nil {
		t.Fatal("left edge tile did not render")
	}
	if a := left.RGBAAt(0, 102).A; a == 0 {
		t.Error("left edge must receive wrapped heat from the west point")
	}
	if a := left.RGBAAt(2, 204).A; a == 0 {
		t.Error("left tile must also render its own east point")
	}

	// Tile x=3 overhangs x=1 and wraps to the east point.
	right := p.Render(3, 1, 2)
	if right == nil {
		t.Fatal("right edge tile did not render")
	}
	if a := right.RGBAAt(511, 204).A; a == 0 {
		t.Error("right edge must receive wrapped heat from the east point")
	}
	if a := right.RGBAAt(509, 102).A; a == 0 {
		t.Error("right tile must also render its own west point")
	}
}

func TestRenderZoomCalibration(t *testing.T) {
	// Two clusters merging into one bucket at low zoom. Auto calibration
	// keeps the per-zoom maxima positive and non-increasing as zoom grows.
	points := []WeightedPoint{
		{Point: Point{X: 0.40, Y: 0.40}, Weight: 4},
		{Point: Point{X: 0.401, Y: 0.401}, Weight: 4},
		{Point: Point{X: 0.60, Y: 0.60}, Weight: 3},
	}
	p := buildProvider(t, points, nil)

	table := p.MaxIntensities()
	for z := 0; z < MaxZoom; z++ {
		if table.At(z) <= 0 {
			t.Errorf("zoom %d max = %v, want positive", z, table.At(z))
		}
	}
	if table.At(CalibrationMinZoom) < table.At(CalibrationMaxZoom) {
		t.Errorf("low zoom max %v must not be below high zoom max %v",
			table.At(CalibrationMinZoom), table.At(CalibrationMaxZoom))
	}
}
