package domain

// Vintage identifies which archive of a catalog entry a fetch targets.
type Vintage int

const (
	// MultiYear is the finalized reanalysis product ending at the
	// near-real-time cutover date.
	MultiYear Vintage = iota
	// NearRealTime is the provisional product continuing after the cutover.
	NearRealTime
)

func (v Vintage) String() string {
	switch v {
	case MultiYear:
		return "multi-year"
	case NearRealTime:
		return "near-real-time"
	default:
		return "unknown"
	}
}

// Leg is one archive fetch within a routed request. Bounds are relative
// hours on the catalog entry's time axis.
type Leg struct {
	Vintage Vintage
	Start   float64
	Stop    float64
}

// Route decides which archives cover the requested range [start, stop] given
// the near-real-time cutover nrt, all expressed as relative hours from the
// same init date. The result is one leg when the range lies entirely on one
// side of the cutover, or two legs meeting exactly at nrt when the range
// straddles it. The split legs share the boundary value: no gap, no overlap.
func Route(start, stop, nrt float64) ([]Leg, error) {
	switch {
	case start > stop:
		return nil, &InvalidRangeError{Start: start, Stop: stop}
	case stop < nrt:
		return []Leg{{Vintage: MultiYear, Start: start, Stop: stop}}, nil
	case start >= nrt:
		return []Leg{{Vintage: NearRealTime, Start: start, Stop: stop}}, nil
	default:
		return []Leg{
			{Vintage: MultiYear, Start: start, Stop: nrt},
			{Vintage: NearRealTime, Start: nrt, Stop: stop},
		}, nil
	}
}
