package usecase

import (
	"fmt"

	"github.com/lautanlab/lautan/internal/adapter/archive"
	"github.com/lautanlab/lautan/internal/domain"
)

// Coordinate axes as the archives name them, with the short aliases some
// products use.
var axisAliases = map[string][]string{
	"longitude": {"longitude", "lon"},
	"latitude":  {"latitude", "lat"},
	"time":      {"time"},
	"depth":     {"depth"},
}

// axisSelection is the contiguous index window selected on one dimension,
// with the coordinate values it covers.
type axisSelection struct {
	start  int
	count  int
	values []float64
}

// fetchSubset opens the leg's archive, resolves the per-dimension filters
// against its actual axes and materializes the filtered selection into
// row-oriented form, one row per coordinate tuple.
func (uc *FetchUseCase) fetchSubset(pctx *PipelineContext, leg domain.Leg) ([]domain.Row, error) {
	url := pctx.Entry.URL(leg.Vintage)

	uc.logger.Debug().
		Str("vintage", leg.Vintage.String()).
		Str("url", url).
		Float64("start_hours", leg.Start).
		Float64("stop_hours", leg.Stop).
		Msg("opening archive")

	ds, err := uc.opener.Open(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ds.Close() }()

	sels := make(map[string]axisSelection, 4)

	if sels["longitude"], err = uc.selectOnAxis(ds, "longitude", pctx.Filters.Lon); err != nil {
		return nil, err
	}
	if sels["latitude"], err = uc.selectOnAxis(ds, "latitude", pctx.Filters.Lat); err != nil {
		return nil, err
	}

	// The leg narrows the request's time bounds to its own archive; a point
	// query snaps to the archive's axis instead.
	timeFilter := pctx.Filters.Time
	if timeFilter.Kind == domain.FilterRange {
		timeFilter = domain.RangeFilter(leg.Start, leg.Stop)
	}
	if sels["time"], err = uc.selectOnAxis(ds, "time", timeFilter); err != nil {
		return nil, err
	}

	if pctx.Filters.Depth != nil && ds.HasAxis("depth") {
		if sels["depth"], err = uc.selectOnAxis(ds, "depth", *pctx.Filters.Depth); err != nil {
			return nil, err
		}
	}

	return uc.materialize(ds, pctx.Variables, sels)
}

// selectOnAxis resolves a filter into an index window on the named axis.
func (uc *FetchUseCase) selectOnAxis(ds archive.Dataset, canonical string, f domain.Filter) (axisSelection, error) {
	name := canonical
	for _, alias := range axisAliases[canonical] {
		if ds.HasAxis(alias) {
			name = alias
			break
		}
	}

	axis, err := ds.Axis(name)
	if err != nil {
		return axisSelection{}, err
	}

	if f.Kind == domain.FilterPoint {
		idx, err := domain.NearestIndex(axis, f.Target)
		if err != nil {
			return axisSelection{}, fmt.Errorf("axis %s: %w", canonical, err)
		}
		return axisSelection{start: idx, count: 1, values: axis[idx : idx+1]}, nil
	}

	// Inclusive range window; the axes are ascending by construction.
	lo := 0
	for lo < len(axis) && axis[lo] < f.Lo {
		lo++
	}
	hi := len(axis) - 1
	for hi >= lo && axis[hi] > f.Hi {
		hi--
	}
	if hi < lo {
		return axisSelection{start: 0, count: 0, values: nil}, nil
	}

	return axisSelection{start: lo, count: hi - lo + 1, values: axis[lo : hi+1]}, nil
}

// materialize reads every requested variable over the selected windows and
// scatters the values into rows keyed by coordinate tuple. Row order follows
// the first variable's native dimension order, so the result is
// deterministic.
func (uc *FetchUseCase) materialize(ds archive.Dataset, variables []string, sels map[string]axisSelection) ([]domain.Row, error) {
	type rowKey struct {
		lon, lat, depth, hours float64
	}

	byKey := make(map[rowKey]*domain.Row)
	order := make([]rowKey, 0)

	for _, varName := range variables {
		v, err := ds.Variable(varName)
		if err != nil {
			return nil, err
		}

		dims := v.Dims()
		start := make([]int, len(dims))
		count := make([]int, len(dims))
		dimSels := make([]axisSelection, len(dims))

		empty := false
		for i, d := range dims {
			canonical, err := canonicalAxis(d)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", varName, err)
			}
			sel, ok := sels[canonical]
			if !ok {
				return nil, fmt.Errorf("variable %s: no selection for dimension %s", varName, d)
			}
			start[i] = sel.start
			count[i] = sel.count
			dimSels[i] = sel
			if sel.count == 0 {
				empty = true
			}
		}
		if empty {
			continue
		}

		flat, err := v.ReadSection(start, count)
		if err != nil {
			return nil, err
		}

		// Walk the section in its native order, deriving each value's
		// coordinate tuple from the per-dimension positions.
		pos := make([]int, len(dims))
		for i, value := range flat {
			key := rowKey{}
			for j, d := range dims {
				coord := dimSels[j].values[pos[j]]
				switch canonicalName(d) {
				case "longitude":
					key.lon = coord
				case "latitude":
					key.lat = coord
				case "time":
					key.hours = coord
				case "depth":
					key.depth = coord
				}
			}

			row, ok := byKey[key]
			if !ok {
				row = &domain.Row{
					Lon:    key.lon,
					Lat:    key.lat,
					Depth:  key.depth,
					Hours:  key.hours,
					Values: make(map[string]float64, len(variables)),
				}
				byKey[key] = row
				order = append(order, key)
			}
			row.Values[varName] = value

			// Advance the index odometer unless this was the last value.
			if i == len(flat)-1 {
				break
			}
			for j := len(pos) - 1; j >= 0; j-- {
				pos[j]++
				if pos[j] < count[j] {
					break
				}
				pos[j] = 0
			}
		}
	}

	rows := make([]domain.Row, len(order))
	for i, key := range order {
		rows[i] = *byKey[key]
	}

	return rows, nil
}

// canonicalAxis maps an archive dimension name to its canonical axis name.
func canonicalAxis(dim string) (string, error) {
	if c := canonicalName(dim); c != "" {
		return c, nil
	}
	return "", fmt.Errorf("unexpected dimension %q", dim)
}

func canonicalName(dim string) string {
	for canonical, aliases := range axisAliases {
		for _, a := range aliases {
			if dim == a {
				return canonical
			}
		}
	}
	return ""
}
