package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Row is one fetched sample at a single coordinate tuple. Hours is the time
// coordinate in relative hours from the catalog entry's init date; Time is
// populated only during assembly, by the single final conversion back to
// absolute UTC. Depth is 0 for surface-only variables.
type Row struct {
	Lon    float64
	Lat    float64
	Depth  float64
	Hours  float64
	Time   time.Time
	Values map[string]float64
}

// Dataset is the assembled output of one pipeline run: the concatenated rows
// of every routed leg, in fetch order, with absolute timestamps restored.
type Dataset struct {
	Rows      []Row
	Variables []string
	InitDate  time.Time
}

// GridAxes are the four independent sorted-unique coordinate axes of an
// assembled dataset, suitable for array-shaped export. Hours re-expresses
// the time axis in relative hours from the init date, the form array formats
// prefer over absolute timestamps.
type GridAxes struct {
	Lon   []float64
	Lat   []float64
	Depth []float64
	Hours []float64
}

// GridAxes derives the coordinate axes of the dataset.
func (ds *Dataset) GridAxes() GridAxes {
	lons := make([]float64, len(ds.Rows))
	lats := make([]float64, len(ds.Rows))
	depths := make([]float64, len(ds.Rows))
	hours := make([]float64, len(ds.Rows))

	for i, r := range ds.Rows {
		lons[i] = r.Lon
		lats[i] = r.Lat
		depths[i] = r.Depth
		hours[i] = RelativeHours(r.Time, ds.InitDate)
	}

	return GridAxes{
		Lon:   UniqueSorted(lons),
		Lat:   UniqueSorted(lats),
		Depth: UniqueSorted(depths),
		Hours: UniqueSorted(hours),
	}
}

// WriteCSV writes the dataset in row-oriented form with one column per
// variable, in the dataset's declared variable order.
func (ds *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time", "longitude", "latitude", "depth"}, ds.Variables...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(header))
	for _, r := range ds.Rows {
		record[0] = r.Time.Format(time.RFC3339)
		record[1] = strconv.FormatFloat(r.Lon, 'g', -1, 64)
		record[2] = strconv.FormatFloat(r.Lat, 'g', -1, 64)
		record[3] = strconv.FormatFloat(r.Depth, 'g', -1, 64)
		for i, name := range ds.Variables {
			record[4+i] = strconv.FormatFloat(r.Values[name], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
