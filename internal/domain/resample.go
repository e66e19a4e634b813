package domain

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Period is a resampling bucket width on the time axis.
type Period int

const (
	// Daily buckets rows by calendar day.
	Daily Period = iota
	// Monthly buckets rows by calendar month.
	Monthly
	// Annual buckets rows by calendar year.
	Annual
)

// PeriodFor maps a temporal resolution tag to its resampling period.
func PeriodFor(temporal string) (Period, error) {
	switch temporal {
	case "daily":
		return Daily, nil
	case "monthly":
		return Monthly, nil
	case "annual":
		return Annual, nil
	default:
		return 0, fmt.Errorf("no resampling period for temporal resolution %q", temporal)
	}
}

// truncate maps a timestamp to the start of its bucket.
func (p Period) truncate(t time.Time) time.Time {
	switch p {
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
}

type resampleKey struct {
	lon    float64
	lat    float64
	depth  float64
	bucket time.Time
}

// ResampleMean averages rows sharing a spatial cell and period bucket,
// producing one row per group timestamped at the bucket start. Used for
// variables whose native archive resolution is finer than the requested one,
// e.g. the 3-hourly wave product queried at monthly resolution. Group order
// follows first appearance in the input, so the output is deterministic.
func ResampleMean(rows []Row, init time.Time, period Period) []Row {
	groups := make(map[resampleKey]*Row)
	samples := make(map[resampleKey]map[string][]float64)
	order := make([]resampleKey, 0)

	for _, r := range rows {
		bucket := period.truncate(AbsoluteTime(r.Hours, init))
		key := resampleKey{lon: r.Lon, lat: r.Lat, depth: r.Depth, bucket: bucket}

		if _, ok := groups[key]; !ok {
			groups[key] = &Row{
				Lon:    r.Lon,
				Lat:    r.Lat,
				Depth:  r.Depth,
				Hours:  RelativeHours(bucket, init),
				Values: make(map[string]float64, len(r.Values)),
			}
			samples[key] = make(map[string][]float64, len(r.Values))
			order = append(order, key)
		}
		for name, v := range r.Values {
			samples[key][name] = append(samples[key][name], v)
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		row := groups[key]
		for name, vs := range samples[key] {
			row.Values[name] = stat.Mean(vs, nil)
		}
		out = append(out, *row)
	}

	return out
}
