package heatmap

// Bounds is an axis-aligned rectangle on the projected unit square.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// BoundsOf computes the bounding box of points. The zero Bounds is returned
// for an empty slice.
func BoundsOf(points []WeightedPoint) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: points[0].X, MaxX: points[0].X,
		MinY: points[0].Y, MaxY: points[0].Y,
	}
	for _, p := range points[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Pad grows the rectangle by d on every side.
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{MinX: b.MinX - d, MaxX: b.MaxX + d, MinY: b.MinY - d, MaxY: b.MaxY + d}
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Point) bool {
	return b.MinX <= p.X && p.X <= b.MaxX && b.MinY <= p.Y && p.Y <= b.MaxY
}

// ContainsBounds reports whether o lies entirely inside b.
func (b Bounds) ContainsBounds(o Bounds) bool {
	return b.Contains(Point{X: o.MinX, Y: o.MinY}) && b.Contains(Point{X: o.MaxX, Y: o.MaxY})
}

// Intersects reports whether b and o share interior area. Rectangles that
// only touch along an edge do not intersect.
func (b Bounds) Intersects(o Bounds) bool {
	return o.MinX < b.MaxX && b.MinX < o.MaxX && o.MinY < b.MaxY && b.MinY < o.MaxY
}

func (b Bounds) midX() float64 { return (b.MinX + b.MaxX) / 2 }
func (b Bounds) midY() float64 { return (b.MinY + b.MaxY) / 2 }
