package heatmap

import (
	"image"
	"image/color"
	"log"
	"math"
)

// kernelCutoff drops kernel contributions too faint to color a pixel.
const kernelCutoff = 0.01

// cell is one accumulator pixel. Intensity stays in [0, 1]; a zero
// intensity marks the cell untouched.
type cell struct {
	intensity float64
	weight    float64
}

func mergeCell(c cell, intensity, weight float64) cell {
	if c.intensity == 0 {
		return cell{intensity: intensity, weight: weight}
	}
	merged := cell{
		intensity: math.Min(c.intensity+intensity, 1),
		weight:    (c.intensity*c.weight + intensity*weight) / (c.intensity + intensity),
	}
	return merged
}

// snapshot is an immutable view of the provider's data and render
// parameters. Render works entirely off one snapshot, so mutators can swap
// in a replacement without disturbing in-flight renders.
type snapshot struct {
	points         []WeightedPoint
	index          *Index
	bounds         Bounds
	radius         int
	smoothing      float64
	lut            []color.RGBA
	maxIntensities MaxIntensityTable
}

// renderTile draws one tile, or returns nil when the tile cannot contain
// any heat.
func (s *snapshot) renderTile(x, y, zoom int) *image.RGBA {
	tileWidth := WorldWidth / math.Pow(2, float64(zoom))
	padding := float64(s.radius) * tileWidth / TileDim

	minX := float64(x) * tileWidth
	minY := float64(y) * tileWidth

	// Points up to one kernel radius outside the tile still influence it.
	ext := Bounds{
		MinX: minX - padding,
		MaxX: float64(x+1)*tileWidth + padding,
		MinY: minY - padding,
		MaxY: float64(y+1)*tileWidth + padding,
	}
	if !ext.Intersects(s.bounds.Pad(padding)) {
		return nil
	}

	points := s.index.Search(ext)

	// Tiles overhanging the antimeridian pull points from the far edge of
	// the world and shift them by one world width.
	var wrapped []WeightedPoint
	var xOffset float64
	if ext.MinX < 0 {
		xOffset = -WorldWidth
		wrapped = s.index.Search(Bounds{MinX: ext.MinX + WorldWidth, MaxX: WorldWidth, MinY: ext.MinY, MaxY: ext.MaxY})
	} else if ext.MaxX > WorldWidth {
		xOffset = WorldWidth
		wrapped = s.index.Search(Bounds{MinX: 0, MaxX: ext.MaxX - WorldWidth, MinY: ext.MinY, MaxY: ext.MaxY})
	}

	if len(points) == 0 && len(wrapped) == 0 {
		return nil
	}

	grid := make([]cell, TileDim*TileDim)
	for _, p := range points {
		s.splat(grid, p, minX, minY, tileWidth, 0)
	}
	for _, p := range wrapped {
		s.splat(grid, p, minX, minY, tileWidth, xOffset)
	}

	return colorize(grid, s.lut, s.maxIntensities.At(zoom))
}

// splat convolves one point over the disc kernel into the accumulator. A
// fault while drawing a single point is logged and skips only that point.
func (s *snapshot) splat(grid []cell, p WeightedPoint, minX, minY, tileWidth, xOffset float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Heatmap] skipping point (%v, %v): %v", p.X, p.Y, r)
		}
	}()

	gx := int(math.Floor((p.X + xOffset - minX) * TileDim / tileWidth))
	gy := int(math.Floor((p.Y - minY) * TileDim / tileWidth))

	// Kernel window around the point's pixel, clipped to the tile. The
	// point itself may sit in the padding outside the tile.
	r := s.radius
	diStart, diEnd := -r, r
	djStart, djEnd := -r, r
	if gx+diStart < 0 {
		diStart = -gx
	}
	if gx+diEnd > TileDim {
		diEnd = TileDim - gx
	}
	if gy+djStart < 0 {
		djStart = -gy
	}
	if gy+djEnd > TileDim {
		djEnd = TileDim - gy
	}

	falloff := float64(r*r) / 3
	for dj := djStart; dj < djEnd; dj++ {
		row := (gy + dj) * TileDim
		for di := diStart; di < diEnd; di++ {
			intensity := math.Exp(-float64(di*di+dj*dj) / falloff)
			if intensity <= kernelCutoff {
				continue
			}
			weight := math.Max(intensity*s.smoothing+(p.Weight-s.smoothing), 1)
			idx := row + gx + di
			grid[idx] = mergeCell(grid[idx], intensity, weight)
		}
	}
}

// colorize maps accumulator cells to pixels. Weight selects the gradient
// entry, scaled so max sits at the table's top; intensity scales alpha.
func colorize(grid []cell, lut []color.RGBA, max float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, TileDim, TileDim))
	var scaling float64
	if max > 0 {
		scaling = float64(len(lut)-1) / max
	}
	for y := 0; y < TileDim; y++ {
		for x := 0; x < TileDim; x++ {
			c := grid[y*TileDim+x]
			if c.intensity == 0 {
				continue
			}
			col := int(c.weight * scaling)
			if max <= 0 || col >= len(lut) {
				col = len(lut) - 1
			}
			if col < 0 {
				col = 0
			}
			px := lut[col]
			px.A = uint8(c.intensity * float64(px.A))
			img.SetRGBA(x, y, px)
		}
	}
	return img
}
