package domain

import "fmt"

// FilterKind distinguishes the two ways a coordinate dimension can be
// constrained.
type FilterKind int

const (
	// FilterRange keeps values in an inclusive [Lo, Hi] window.
	FilterRange FilterKind = iota
	// FilterPoint keeps only the axis value nearest to Target.
	FilterPoint
)

// Filter is a resolved predicate over one coordinate dimension. Requests
// with distinct start/stop (or depth min/max) become range filters; a
// collapsed pair becomes a point filter that is snapped to the archive's
// actual axis before selection.
type Filter struct {
	Kind   FilterKind
	Lo     float64
	Hi     float64
	Target float64
}

// RangeFilter builds an inclusive range filter.
func RangeFilter(lo, hi float64) Filter {
	return Filter{Kind: FilterRange, Lo: lo, Hi: hi}
}

// PointFilter builds a nearest-neighbor point filter.
func PointFilter(target float64) Filter {
	return Filter{Kind: FilterPoint, Target: target}
}

func (f Filter) String() string {
	if f.Kind == FilterPoint {
		return fmt.Sprintf("point(%g)", f.Target)
	}
	return fmt.Sprintf("range[%g, %g]", f.Lo, f.Hi)
}

// FilterSet holds the per-dimension filters of one archive fetch. Time
// bounds are relative hours; the time filter therefore differs per routed
// leg. Depth is nil for surface-only variables, which carry no depth
// dimension at all; for those the depth predicate is skipped entirely.
type FilterSet struct {
	Lon   Filter
	Lat   Filter
	Time  Filter
	Depth *Filter
}
