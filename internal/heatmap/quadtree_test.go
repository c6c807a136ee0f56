package heatmap

import (
	"math/rand"
	"testing"
)

func TestIndexSearchExact(t *testing.T) {
	world := Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
	points := []WeightedPoint{
		{Point: Point{X: 0.1, Y: 0.1}, Weight: 1},
		{Point: Point{X: 0.2, Y: 0.2}, Weight: 2},
		{Point: Point{X: 0.8, Y: 0.8}, Weight: 3},
	}
	ix := NewIndex(world, points)

	got := ix.Search(Bounds{MinX: 0, MaxX: 0.5, MinY: 0, MaxY: 0.5})
	if len(got) != 2 {
		t.Fatalf("search returned %d points, want 2", len(got))
	}
	for _, p := range got {
		if p.X > 0.5 || p.Y > 0.5 {
			t.Errorf("search returned out-of-range point %+v", p)
		}
	}

	if got := ix.Search(Bounds{MinX: 0.4, MaxX: 0.6, MinY: 0.4, MaxY: 0.6}); len(got) != 0 {
		t.Errorf("empty region returned %d points", len(got))
	}
}

func TestIndexDropsOutOfBounds(t *testing.T) {
	ix := NewIndex(Bounds{MinX: 0, MaxX: 0.5, MinY: 0, MaxY: 0.5}, nil)
	ix.Insert(WeightedPoint{Point: Point{X: 0.9, Y: 0.9}, Weight: 1})
	if got := ix.Search(Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}); len(got) != 0 {
		t.Errorf("out-of-bounds insert was indexed: %+v", got)
	}
}

func TestIndexSplitsAndFindsAll(t *testing.T) {
	world := Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
	rng := rand.New(rand.NewSource(7))

	const n = 5000
	points := make([]WeightedPoint, n)
	for i := range points {
		points[i] = WeightedPoint{
			Point:  Point{X: rng.Float64(), Y: rng.Float64()},
			Weight: 1,
		}
	}
	ix := NewIndex(world, points)

	got := ix.Search(world)
	if len(got) != n {
		t.Fatalf("full-world search returned %d points, want %d", len(got), n)
	}

	// Cross-check a sub-region against a linear scan.
	region := Bounds{MinX: 0.25, MaxX: 0.75, MinY: 0.1, MaxY: 0.4}
	want := 0
	for _, p := range points {
		if region.Contains(p.Point) {
			want++
		}
	}
	if got := ix.Search(region); len(got) != want {
		t.Errorf("region search returned %d points, want %d", len(got), want)
	}
}

func TestIndexCoincidentPoints(t *testing.T) {
	world := Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
	ix := NewIndex(world, nil)

	// More identical points than a leaf holds; depth capping keeps the
	// tree from recursing forever.
	for i := 0; i < 500; i++ {
		ix.Insert(WeightedPoint{Point: Point{X: 0.5, Y: 0.5}, Weight: 1})
	}
	got := ix.Search(Bounds{MinX: 0.49, MaxX: 0.51, MinY: 0.49, MaxY: 0.51})
	if len(got) != 500 {
		t.Errorf("search returned %d coincident points, want 500", len(got))
	}
}
