// Package export writes assembled datasets as multi-dimensional NetCDF
// arrays.
package export

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/lautanlab/lautan/internal/domain"
)

// WriteGrid writes the dataset as a 4-D array per variable over the
// (time, depth, latitude, longitude) axes derived from the assembled rows.
// The time coordinate is written in relative hours since the dataset's init
// date, the numeric form array formats prefer. Cells not covered by any row
// are NaN.
func WriteGrid(path string, ds *domain.Dataset) error {
	axes := ds.GridAxes()

	nc, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	timeDim, err := nc.AddDim("time", uint64(len(axes.Hours)))
	if err != nil {
		return err
	}
	depthDim, err := nc.AddDim("depth", uint64(len(axes.Depth)))
	if err != nil {
		return err
	}
	latDim, err := nc.AddDim("latitude", uint64(len(axes.Lat)))
	if err != nil {
		return err
	}
	lonDim, err := nc.AddDim("longitude", uint64(len(axes.Lon)))
	if err != nil {
		return err
	}

	timeVar, err := nc.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	depthVar, err := nc.AddVar("depth", netcdf.DOUBLE, []netcdf.Dim{depthDim})
	if err != nil {
		return err
	}
	latVar, err := nc.AddVar("latitude", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := nc.AddVar("longitude", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}

	gridDims := []netcdf.Dim{timeDim, depthDim, latDim, lonDim}
	dataVars := make([]netcdf.Var, len(ds.Variables))
	for i, name := range ds.Variables {
		dataVars[i], err = nc.AddVar(name, netcdf.DOUBLE, gridDims)
		if err != nil {
			return fmt.Errorf("failed to add variable %s: %w", name, err)
		}
	}

	if err := nc.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	if err := timeVar.WriteFloat64s(axes.Hours); err != nil {
		return err
	}
	if err := depthVar.WriteFloat64s(axes.Depth); err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(axes.Lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(axes.Lon); err != nil {
		return err
	}

	timeIdx := indexOf(axes.Hours)
	depthIdx := indexOf(axes.Depth)
	latIdx := indexOf(axes.Lat)
	lonIdx := indexOf(axes.Lon)

	nDepth, nLat, nLon := len(axes.Depth), len(axes.Lat), len(axes.Lon)
	total := len(axes.Hours) * nDepth * nLat * nLon

	for i, name := range ds.Variables {
		grid := make([]float64, total)
		for j := range grid {
			grid[j] = math.NaN()
		}

		for _, r := range ds.Rows {
			ti := timeIdx[domain.RelativeHours(r.Time, ds.InitDate)]
			di := depthIdx[r.Depth]
			yi := latIdx[r.Lat]
			xi := lonIdx[r.Lon]
			grid[((ti*nDepth+di)*nLat+yi)*nLon+xi] = r.Values[name]
		}

		if err := dataVars[i].WriteFloat64s(grid); err != nil {
			return fmt.Errorf("failed to write variable %s: %w", name, err)
		}
	}

	return nil
}

func indexOf(axis []float64) map[float64]int {
	m := make(map[float64]int, len(axis))
	for i, v := range axis {
		m[v] = i
	}
	return m
}
