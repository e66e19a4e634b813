package domain

import (
	"testing"
	"time"
)

func TestAssemble(t *testing.T) {
	init := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	my := []Row{
		{Lon: 115, Lat: -8, Depth: 0, Hours: 0, Values: map[string]float64{"thetao": 28.1}},
		{Lon: 115, Lat: -8, Depth: 0, Hours: 24, Values: map[string]float64{"thetao": 28.2}},
	}
	nrt := []Row{
		{Lon: 115, Lat: -8, Depth: 0, Hours: 48, Values: map[string]float64{"thetao": 28.3}},
	}

	ds := Assemble([][]Row{my, nrt}, []string{"thetao"}, init)

	if len(ds.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ds.Rows))
	}

	// Concatenation preserves leg order.
	if ds.Rows[0].Values["thetao"] != 28.1 || ds.Rows[2].Values["thetao"] != 28.3 {
		t.Error("rows must be concatenated in fetch order")
	}

	// Absolute timestamps restored from the canonical init date.
	expected := []time.Time{
		init,
		init.AddDate(0, 0, 1),
		init.AddDate(0, 0, 2),
	}
	for i, want := range expected {
		if !ds.Rows[i].Time.Equal(want) {
			t.Errorf("row %d: expected time %v, got %v", i, want, ds.Rows[i].Time)
		}
	}
}

func TestGridAxes(t *testing.T) {
	init := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := []Row{
		{Lon: 116, Lat: -8, Depth: 0, Hours: 24, Values: map[string]float64{"so": 34}},
		{Lon: 115, Lat: -7, Depth: 10, Hours: 0, Values: map[string]float64{"so": 35}},
		{Lon: 115, Lat: -8, Depth: 0, Hours: 24, Values: map[string]float64{"so": 34.5}},
	}

	ds := Assemble([][]Row{rows}, []string{"so"}, init)
	axes := ds.GridAxes()

	checkAxis := func(name string, got, expected []float64) {
		t.Helper()
		if len(got) != len(expected) {
			t.Fatalf("%s axis: expected %v, got %v", name, expected, got)
		}
		for i := range got {
			if got[i] != expected[i] {
				t.Fatalf("%s axis: expected %v, got %v", name, expected, got)
			}
		}
	}

	checkAxis("lon", axes.Lon, []float64{115, 116})
	checkAxis("lat", axes.Lat, []float64{-8, -7})
	checkAxis("depth", axes.Depth, []float64{0, 10})

	// Time re-expressed in relative hours from the init date.
	checkAxis("time", axes.Hours, []float64{0, 24})
}
