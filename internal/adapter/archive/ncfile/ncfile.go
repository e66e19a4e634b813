// Package ncfile provides archive access backed by local NetCDF files,
// for file: catalog URLs and tests.
package ncfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/lautanlab/lautan/internal/adapter/archive"
)

// Opener opens local NetCDF files. URLs may carry a file:// prefix or be
// plain paths.
type Opener struct{}

// Open implements archive.Opener.
func (Opener) Open(rawURL string) (archive.Dataset, error) {
	path := strings.TrimPrefix(rawURL, "file://")

	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: rawURL, Err: err}
	}

	return &dataset{nc: nc, url: rawURL}, nil
}

type dataset struct {
	nc  netcdf.Dataset
	url string
}

func (d *dataset) HasAxis(name string) bool {
	v, err := d.nc.Var(name)
	if err != nil {
		return false
	}
	dims, err := v.Dims()
	if err != nil || len(dims) != 1 {
		return false
	}
	dimName, err := dims[0].Name()
	return err == nil && dimName == name
}

func (d *dataset) Axis(name string) ([]float64, error) {
	v, err := d.nc.Var(name)
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: fmt.Errorf("no coordinate axis %q: %w", name, err)}
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: err}
	}
	if len(dims) != 1 {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: fmt.Errorf("coordinate %q is not 1-D", name)}
	}

	values, err := readAll(v)
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: fmt.Errorf("axis %s: %w", name, err)}
	}

	return values, nil
}

func (d *dataset) Variable(name string) (archive.Variable, error) {
	v, err := d.nc.Var(name)
	if err != nil {
		return nil, &archive.VariableNotFoundError{URL: d.url, Variable: name}
	}
	return &variable{ds: d, v: v, name: name}, nil
}

func (d *dataset) Close() error {
	return d.nc.Close()
}

type variable struct {
	ds   *dataset
	v    netcdf.Var
	name string

	// Whole-variable read, cached on first section request. Local files
	// are small subsets; hyperslabs are cut in memory.
	flat  []float64
	sizes []int
}

func (v *variable) Dims() []string {
	dims, err := v.v.Dims()
	if err != nil {
		return nil
	}

	names := make([]string, len(dims))
	for i, d := range dims {
		name, err := d.Name()
		if err != nil {
			return nil
		}
		names[i] = name
	}

	return names
}

func (v *variable) ReadSection(start, count []int) ([]float64, error) {
	if v.flat == nil {
		if err := v.load(); err != nil {
			return nil, &archive.RemoteAccessError{URL: v.ds.url, Err: fmt.Errorf("variable %s: %w", v.name, err)}
		}
	}

	if len(start) != len(v.sizes) || len(count) != len(v.sizes) {
		return nil, fmt.Errorf("variable %s: section rank %d does not match %d dimensions", v.name, len(start), len(v.sizes))
	}
	for i := range start {
		if start[i] < 0 || count[i] < 1 || start[i]+count[i] > v.sizes[i] {
			return nil, fmt.Errorf("variable %s: section out of bounds on dimension %d", v.name, i)
		}
	}

	return cutSection(v.flat, v.sizes, start, count), nil
}

func (v *variable) load() error {
	dims, err := v.v.Dims()
	if err != nil {
		return err
	}

	sizes := make([]int, len(dims))
	total := 1
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return err
		}
		sizes[i] = int(n)
		total *= int(n)
	}

	flat, err := readFlat(v.v, total)
	if err != nil {
		return err
	}

	// CF packing: fill values become NaN, everything else is scaled.
	scale, hasScale := attrFloat(v.v, "scale_factor")
	offset, hasOffset := attrFloat(v.v, "add_offset")
	fill, hasFill := fillValue(v.v)
	if hasScale || hasOffset || hasFill {
		if !hasScale {
			scale = 1
		}
		if !hasOffset {
			offset = 0
		}
		for i, val := range flat {
			if hasFill && val == fill {
				flat[i] = math.NaN()
				continue
			}
			flat[i] = val*scale + offset
		}
	}

	v.flat = flat
	v.sizes = sizes
	return nil
}

// cutSection extracts a hyperslab from a flattened row-major array.
func cutSection(flat []float64, sizes, start, count []int) []float64 {
	total := 1
	for _, c := range count {
		total *= c
	}
	out := make([]float64, 0, total)

	strides := make([]int, len(sizes))
	stride := 1
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sizes[i]
	}

	last := len(sizes) - 1
	idx := make([]int, len(sizes))
	copy(idx, start)
	for {
		// Copy the contiguous innermost run.
		off := 0
		for i, x := range idx {
			off += x * strides[i]
		}
		out = append(out, flat[off:off+count[last]]...)

		// Advance the outer index odometer.
		i := last - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < start[i]+count[i] {
				break
			}
			idx[i] = start[i]
		}
		if i < 0 {
			break
		}
	}

	return out
}

// readFlat reads a whole variable as float64 regardless of its stored type.
func readFlat(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, total)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, total)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// attrFloat returns a named numeric attribute if present.
func attrFloat(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}

	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int16, 1)
	if err := a.ReadInt16s(bufi); err == nil {
		return float64(bufi[0]), true
	}

	return 0, false
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		if fv, ok := attrFloat(v, name); ok {
			return fv, true
		}
	}
	return 0, false
}
