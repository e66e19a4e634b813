package domain

import (
	"fmt"
	"math"
)

// DerivedField is a computed column expressed as a pure function of
// already-fetched raw columns. New derived quantities are added by
// registering an entry here rather than by editing the fetch control flow.
type DerivedField struct {
	Name       string
	Components []string
	Combine    func(components []float64) float64
}

var derivedFields = map[string]DerivedField{
	// Horizontal current speed from the orthogonal velocity components.
	"sea_water_velocity": {
		Name:       "sea_water_velocity",
		Components: []string{"uo", "vo"},
		Combine: func(c []float64) float64 {
			return math.Hypot(c[0], c[1])
		},
	},
}

// DerivedFor looks up the derived-field registration for a computed column
// name.
func DerivedFor(name string) (DerivedField, bool) {
	d, ok := derivedFields[name]
	return d, ok
}

// ExpandVariables ensures every raw component of d is present in vars,
// so a caller asking only for the composite name still fetches what the
// combinator needs. Order of existing entries is preserved.
func (d DerivedField) ExpandVariables(vars []string) []string {
	present := make(map[string]bool, len(vars))
	for _, v := range vars {
		present[v] = true
	}

	out := append([]string(nil), vars...)
	for _, c := range d.Components {
		if !present[c] {
			out = append(out, c)
		}
	}

	return out
}

// Augment appends the derived column to every row in place. All component
// columns must already be present.
func (d DerivedField) Augment(rows []Row) error {
	components := make([]float64, len(d.Components))

	for i := range rows {
		for j, name := range d.Components {
			v, ok := rows[i].Values[name]
			if !ok {
				return fmt.Errorf("derived field %s: component %s missing from fetched row", d.Name, name)
			}
			components[j] = v
		}
		rows[i].Values[d.Name] = d.Combine(components)
	}

	return nil
}
