package geom

import (
	"iter"
	"math"
	"slices"
)

// DefaultDatelineThreshold is the longitude jump, in degrees, treated as a wrap.
const DefaultDatelineThreshold = 180.0

// SplitAntimeridian yields the segments of line, breaking wherever two consecutive
// vertices differ in longitude by more than threshold. The vertex after a jump opens
// the next segment. Segments with a single vertex are dropped.
func SplitAntimeridian(line Line, threshold float64) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		if len(line) == 0 {
			return
		}
		start := 0
		for i := 1; i < len(line); i++ {
			if math.Abs(line[i].Lon-line[i-1].Lon) <= threshold {
				continue
			}
			if i-start > 1 && !yield(Segment(slices.Clone(line[start:i]))) {
				return
			}
			start = i
		}
		if len(line)-start > 1 {
			yield(Segment(slices.Clone(line[start:])))
		}
	}
}

// SplitAll collects SplitAntimeridian into a slice.
func SplitAll(line Line, threshold float64) []Segment {
	return slices.Collect(SplitAntimeridian(line, threshold))
}

// Dropped counts the vertices SplitAntimeridian discards as single-vertex segments.
func Dropped(line Line, threshold float64) int {
	kept := 0
	for seg := range SplitAntimeridian(line, threshold) {
		kept += len(seg)
	}
	return len(line) - kept
}
