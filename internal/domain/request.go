package domain

import (
	"fmt"
	"time"
)

// Request is one user-specified query, constructed once per run. Start and
// Stop may be equal, in which case the temporal filter becomes a
// nearest-neighbor point lookup instead of a range; the same duality applies
// to the depth pair.
type Request struct {
	Parameter string
	Temporal  string

	Start time.Time
	Stop  time.Time

	LonMin float64
	LonMax float64
	LatMin float64
	LatMax float64

	DepthMin float64
	DepthMax float64
}

// PointQuery reports whether the request asks for a single instant rather
// than a time range.
func (r Request) PointQuery() bool {
	return r.Start.Equal(r.Stop)
}

// Validate checks the static constraints of the request. The start/stop
// ordering is validated later by the router, in relative-hours space.
func (r Request) Validate() error {
	if r.Parameter == "" {
		return fmt.Errorf("parameter must be provided")
	}
	if r.Temporal == "" {
		return fmt.Errorf("temporal resolution must be provided")
	}
	if r.LonMin > r.LonMax {
		return fmt.Errorf("lon_min %.4f is greater than lon_max %.4f", r.LonMin, r.LonMax)
	}
	if r.LatMin > r.LatMax {
		return fmt.Errorf("lat_min %.4f is greater than lat_max %.4f", r.LatMin, r.LatMax)
	}
	if r.LatMin < -90 || r.LatMax > 90 {
		return fmt.Errorf("latitude bounds must be between -90 and 90")
	}
	if r.DepthMin > r.DepthMax {
		return fmt.Errorf("depth_min %.2f is greater than depth_max %.2f", r.DepthMin, r.DepthMax)
	}
	return nil
}
