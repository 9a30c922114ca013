package geom

import (
	"encoding/json"
	"fmt"
)

// Vertex is a (longitude, latitude) pair in decimal degrees.
type Vertex struct {
	Lon float64
	Lat float64
}

// MarshalJSON encodes a vertex as [lon, lat], the order GeoJSON and KML use.
func (v Vertex) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{v.Lon, v.Lat})
}

// UnmarshalJSON decodes a [lon, lat] pair.
func (v *Vertex) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode vertex: %w", err)
	}
	v.Lon, v.Lat = pair[0], pair[1]
	return nil
}

// MinRingVertices is the smallest vertex count accepted for a polygon ring.
const MinRingVertices = 4

// Ring is the outer boundary of a zone polygon.
type Ring []Vertex

// Valid reports whether the ring has enough vertices to be drawn.
func (r Ring) Valid() bool {
	return len(r) >= MinRingVertices
}

// Closed reports whether the first and last vertices coincide.
func (r Ring) Closed() bool {
	if len(r) < 2 {
		return false
	}
	return r[0] == r[len(r)-1]
}

// Bounds returns the bounding box of the ring.
func (r Ring) Bounds() Bounds {
	return boundsOf(r)
}

// Line is an ordered vertex sequence before dateline correction.
type Line []Vertex

// Bounds returns the bounding box of the line.
func (l Line) Bounds() Bounds {
	return boundsOf(l)
}

// Segment is a piece of a Line free of longitude wraps. Always at least two vertices.
type Segment []Vertex

// Bounds returns the bounding box of the segment.
func (s Segment) Bounds() Bounds {
	return boundsOf(s)
}

// Bounds is a longitude/latitude bounding box.
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Extend grows b to include o.
func (b Bounds) Extend(o Bounds) Bounds {
	return Bounds{
		MinLon: min(b.MinLon, o.MinLon),
		MinLat: min(b.MinLat, o.MinLat),
		MaxLon: max(b.MaxLon, o.MaxLon),
		MaxLat: max(b.MaxLat, o.MaxLat),
	}
}

func boundsOf(vs []Vertex) Bounds {
	if len(vs) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLon: vs[0].Lon, MinLat: vs[0].Lat, MaxLon: vs[0].Lon, MaxLat: vs[0].Lat}
	for _, v := range vs[1:] {
		b.MinLon = min(b.MinLon, v.Lon)
		b.MinLat = min(b.MinLat, v.Lat)
		b.MaxLon = max(b.MaxLon, v.Lon)
		b.MaxLat = max(b.MaxLat, v.Lat)
	}
	return b
}
