package spatial

import (
	"slices"

	"github.com/dhconnelly/rtreego"

	"github.com/dgallion1/eclipsepath/internal/geom"
)

// Kind says whether an indexed item is a zone ring or a center line segment.
type Kind string

const (
	KindZone       Kind = "zone"
	KindCenterLine Kind = "center_line"
)

// minExtent keeps point-like and axis-aligned geometries indexable; rtreego
// rejects rectangles with a zero side.
const minExtent = 1e-9

// Item is one indexed geometry from a batch.
type Item struct {
	Label      string        `json:"label"`
	StyleIndex int           `json:"style_index"`
	Kind       Kind          `json:"kind"`
	Part       int           `json:"part"`
	Name       string        `json:"name,omitempty"`
	BBox       geom.Bounds   `json:"bbox"`
	Vertices   []geom.Vertex `json:"vertices"`

	seq int
}

// Bounds implements rtreego.Spatial.
func (it *Item) Bounds() rtreego.Rect {
	return rect(it.BBox)
}

// Index answers viewport queries over the zones and center lines of a batch.
type Index struct {
	tree *rtreego.Rtree
	n    int
}

func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// Add indexes a geometry. Empty vertex lists are ignored.
func (ix *Index) Add(label string, styleIndex int, kind Kind, part int, name string, vs []geom.Vertex) {
	if len(vs) == 0 {
		return
	}
	item := &Item{
		Label:      label,
		StyleIndex: styleIndex,
		Kind:       kind,
		Part:       part,
		Name:       name,
		BBox:       geom.Line(vs).Bounds(),
		Vertices:   vs,
		seq:        ix.n,
	}
	ix.n++
	ix.tree.Insert(item)
}

// Len returns the number of indexed items.
func (ix *Index) Len() int {
	return ix.n
}

// Query returns items whose bounding boxes intersect b, in insertion order.
// A box with MinLon > MaxLon wraps across the antimeridian.
func (ix *Index) Query(b geom.Bounds) []*Item {
	var boxes []geom.Bounds
	if b.MinLon > b.MaxLon {
		boxes = []geom.Bounds{
			{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: 180, MaxLat: b.MaxLat},
			{MinLon: -180, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat},
		}
	} else {
		boxes = []geom.Bounds{b}
	}

	seen := make(map[int]bool)
	out := []*Item{}
	for _, box := range boxes {
		for _, s := range ix.tree.SearchIntersect(rect(box)) {
			item := s.(*Item)
			if seen[item.seq] {
				continue
			}
			seen[item.seq] = true
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b *Item) int { return a.seq - b.seq })
	return out
}

func rect(b geom.Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinLon, b.MinLat}
	lengths := []float64{
		max(b.MaxLon-b.MinLon, minExtent),
		max(b.MaxLat-b.MinLat, minExtent),
	}
	r, _ := rtreego.NewRect(point, lengths)
	return r
}
