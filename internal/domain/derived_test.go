package domain

import (
	"math"
	"testing"
)

// TestDerived_CurrentSpeed verifies the 3-4-5 magnitude on the registered
// current-speed field.
func TestDerived_CurrentSpeed(t *testing.T) {
	d, ok := DerivedFor("sea_water_velocity")
	if !ok {
		t.Fatal("sea_water_velocity not registered")
	}

	rows := []Row{
		{Values: map[string]float64{"uo": 3, "vo": 4}},
		{Values: map[string]float64{"uo": 0, "vo": 0}},
		{Values: map[string]float64{"uo": -3, "vo": 4}},
	}

	if err := d.Augment(rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []float64{5, 0, 5}
	for i, want := range expected {
		got := rows[i].Values["sea_water_velocity"]
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("row %d: expected magnitude %g, got %g", i, want, got)
		}
	}

	// Raw components must survive augmentation.
	if rows[0].Values["uo"] != 3 || rows[0].Values["vo"] != 4 {
		t.Error("augmentation must not modify raw components")
	}
}

func TestDerived_MissingComponent(t *testing.T) {
	d, _ := DerivedFor("sea_water_velocity")

	rows := []Row{{Values: map[string]float64{"uo": 3}}}
	if err := d.Augment(rows); err == nil {
		t.Fatal("expected error for missing component column")
	}
}

func TestExpandVariables(t *testing.T) {
	d, _ := DerivedFor("sea_water_velocity")

	tests := []struct {
		name     string
		in       []string
		expected []string
	}{
		{"composite only", []string{}, []string{"uo", "vo"}},
		{"one component present", []string{"uo"}, []string{"uo", "vo"}},
		{"both present", []string{"uo", "vo"}, []string{"uo", "vo"}},
		{"unrelated kept first", []string{"thetao"}, []string{"thetao", "uo", "vo"}},
	}

	for _, tt := range tests {
		got := d.ExpandVariables(tt.in)
		if len(got) != len(tt.expected) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
				break
			}
		}
	}
}

func TestDerivedFor_Unknown(t *testing.T) {
	if _, ok := DerivedFor("thetao"); ok {
		t.Error("thetao must not have a derived-field registration")
	}
	if _, ok := DerivedFor(""); ok {
		t.Error("empty name must not resolve")
	}
}
