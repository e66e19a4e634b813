package domain

import "time"

// Assemble concatenates the per-archive row sets in fetch order and restores
// absolute timestamps using the canonical init date of the catalog entry
// that drove the request. This is the single point where relative hours
// leave the pipeline: converting earlier, per archive, would mix axes whose
// offsets only agree because both vintages share one declared init date.
func Assemble(rowSets [][]Row, variables []string, init time.Time) *Dataset {
	total := 0
	for _, rs := range rowSets {
		total += len(rs)
	}

	rows := make([]Row, 0, total)
	for _, rs := range rowSets {
		rows = append(rows, rs...)
	}

	for i := range rows {
		rows[i].Time = AbsoluteTime(rows[i].Hours, init)
	}

	return &Dataset{
		Rows:      rows,
		Variables: variables,
		InitDate:  init,
	}
}
