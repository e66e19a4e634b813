package domain

import "sort"

// Parameter describes how a canonical short name maps onto archive
// variables. CatalogName is the identifier used in the parameter column of
// the catalog file; Variables are the raw archive variables to fetch;
// Derived names a computed column appended after the fetch (empty when the
// raw variable is served directly).
type Parameter struct {
	Name            string
	CatalogName     string
	Variables       []string
	Derived         string
	SurfaceOnly     bool
	ArchiveTemporal string // native resolution when it differs from the requested one
}

var parameters = map[string]Parameter{
	"arus": {
		Name:        "arus",
		CatalogName: "sea_water_velocity",
		Variables:   []string{"uo", "vo"},
		Derived:     "sea_water_velocity",
	},
	"sst": {
		Name:        "sst",
		CatalogName: "thetao",
		Variables:   []string{"thetao"},
	},
	"salinitas": {
		Name:        "salinitas",
		CatalogName: "so",
		Variables:   []string{"so"},
	},
	"klorofil": {
		Name:        "klorofil",
		CatalogName: "chl",
		Variables:   []string{"chl"},
	},
	"ph": {
		Name:        "ph",
		CatalogName: "ph",
		Variables:   []string{"ph"},
	},
	// The wave product is published 3-hourly only; coarser resolutions are
	// produced by mean-resampling after the fetch.
	"gelombang": {
		Name:            "gelombang",
		CatalogName:     "VHM0",
		Variables:       []string{"VHM0"},
		SurfaceOnly:     true,
		ArchiveTemporal: "3-hourly",
	},
	"kecerahan": {
		Name:        "kecerahan",
		CatalogName: "ZSD",
		Variables:   []string{"ZSD"},
		SurfaceOnly: true,
	},
}

// LookupParameter resolves a canonical short name. Unknown names yield an
// UnknownParameterError listing the valid options.
func LookupParameter(name string) (Parameter, error) {
	p, ok := parameters[name]
	if !ok {
		options := make([]string, 0, len(parameters))
		for k := range parameters {
			options = append(options, k)
		}
		sort.Strings(options)
		return Parameter{}, &UnknownParameterError{Name: name, Options: options}
	}
	return p, nil
}
