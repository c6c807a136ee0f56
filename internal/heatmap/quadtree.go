package heatmap

const (
	// quadMaxElements is the leaf capacity before a node splits.
	quadMaxElements = 50
	// quadMaxDepth caps subdivision so coincident points cannot recurse
	// forever.
	quadMaxDepth = 40
)

// Index is a point quadtree answering axis-aligned range queries.
type Index struct {
	root *quadNode
}

// NewIndex builds an index covering bounds and inserts every point.
func NewIndex(bounds Bounds, points []WeightedPoint) *Index {
	ix := &Index{root: &quadNode{bounds: bounds}}
	for _, p := range points {
		ix.Insert(p)
	}
	return ix
}

// Insert adds a point. Points outside the index bounds are dropped.
func (ix *Index) Insert(p WeightedPoint) {
	if !ix.root.bounds.Contains(p.Point) {
		return
	}
	ix.root.insert(p)
}

// Search returns every indexed point inside query.
func (ix *Index) Search(query Bounds) []WeightedPoint {
	var out []WeightedPoint
	ix.root.search(query, &out)
	return out
}

type quadNode struct {
	bounds   Bounds
	depth    int
	items    []WeightedPoint
	children []*quadNode
}

func (n *quadNode) insert(p WeightedPoint) {
	if n.children != nil {
		n.child(p.Point).insert(p)
		return
	}
	n.items = append(n.items, p)
	if len(n.items) > quadMaxElements && n.depth < quadMaxDepth {
		n.split()
	}
}

func (n *quadNode) child(p Point) *quadNode {
	if p.Y < n.bounds.midY() {
		if p.X < n.bounds.midX() {
			return n.children[0]
		}
		return n.children[1]
	}
	if p.X < n.bounds.midX() {
		return n.children[2]
	}
	return n.children[3]
}

func (n *quadNode) split() {
	mx, my := n.bounds.midX(), n.bounds.midY()
	d := n.depth + 1
	n.children = []*quadNode{
		{bounds: Bounds{MinX: n.bounds.MinX, MaxX: mx, MinY: n.bounds.MinY, MaxY: my}, depth: d},
		{bounds: Bounds{MinX: mx, MaxX: n.bounds.MaxX, MinY: n.bounds.MinY, MaxY: my}, depth: d},
		{bounds: Bounds{MinX: n.bounds.MinX, MaxX: mx, MinY: my, MaxY: n.bounds.MaxY}, depth: d},
		{bounds: Bounds{MinX: mx, MaxX: n.bounds.MaxX, MinY: my, MaxY: n.bounds.MaxY}, depth: d},
	}
	items := n.items
	n.items = nil
	for _, p := range items {
		n.insert(p)
	}
}

func (n *quadNode) search(query Bounds, out *[]WeightedPoint) {
	if !n.bounds.Intersects(query) {
		return
	}
	if n.children != nil {
		for _, c := range n.children {
			c.search(query, out)
		}
		return
	}
	if query.ContainsBounds(n.bounds) {
		*out = append(*out, n.items...)
		return
	}
	for _, p := range n.items {
		if query.Contains(p.Point) {
			*out = append(*out, p)
		}
	}
}
