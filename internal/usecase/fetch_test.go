package usecase

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lautanlab/lautan/internal/adapter/archive"
	"github.com/lautanlab/lautan/internal/adapter/catalog"
	"github.com/lautanlab/lautan/internal/domain"
)

// fakeVariable synthesizes grid values from absolute per-dimension indices.
type fakeVariable struct {
	dims  []string
	shape []int
	fill  func(idx []int) float64
}

func (v *fakeVariable) Dims() []string { return v.dims }

func (v *fakeVariable) ReadSection(start, count []int) ([]float64, error) {
	if len(start) != len(v.dims) || len(count) != len(v.dims) {
		return nil, fmt.Errorf("rank mismatch")
	}

	total := 1
	for i := range count {
		if start[i] < 0 || count[i] < 1 || start[i]+count[i] > v.shape[i] {
			return nil, fmt.Errorf("section out of bounds on dimension %s", v.dims[i])
		}
		total *= count[i]
	}

	out := make([]float64, 0, total)
	idx := make([]int, len(start))
	copy(idx, start)
	for n := 0; n < total; n++ {
		out = append(out, v.fill(idx))
		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < start[j]+count[j] {
				break
			}
			idx[j] = start[j]
		}
	}
	return out, nil
}

type fakeDataset struct {
	axes map[string][]float64
	vars map[string]*fakeVariable
}

func (d *fakeDataset) Axis(name string) ([]float64, error) {
	axis, ok := d.axes[name]
	if !ok {
		return nil, fmt.Errorf("no axis %q", name)
	}
	return axis, nil
}

func (d *fakeDataset) HasAxis(name string) bool {
	_, ok := d.axes[name]
	return ok
}

func (d *fakeDataset) Variable(name string) (archive.Variable, error) {
	v, ok := d.vars[name]
	if !ok {
		return nil, &archive.VariableNotFoundError{Variable: name}
	}
	return v, nil
}

func (d *fakeDataset) Close() error { return nil }

// newGridDataset builds a dataset whose variables span the given axes in the
// conventional time/depth/latitude/longitude order. Axes with no values are
// omitted from the schema entirely.
func newGridDataset(axes map[string][]float64, fills map[string]func(idx []int) float64) *fakeDataset {
	dims := make([]string, 0, 4)
	shape := make([]int, 0, 4)
	for _, name := range []string{"time", "depth", "latitude", "longitude"} {
		if values, ok := axes[name]; ok {
			dims = append(dims, name)
			shape = append(shape, len(values))
		}
	}

	vars := make(map[string]*fakeVariable, len(fills))
	for name, fill := range fills {
		vars[name] = &fakeVariable{dims: dims, shape: shape, fill: fill}
	}

	return &fakeDataset{axes: axes, vars: vars}
}

type fakeOpener struct {
	datasets map[string]archive.Dataset
	fail     map[string]error
}

func (o *fakeOpener) Open(url string) (archive.Dataset, error) {
	if err, ok := o.fail[url]; ok {
		return nil, &archive.RemoteAccessError{URL: url, Err: err}
	}
	ds, ok := o.datasets[url]
	if !ok {
		return nil, &archive.RemoteAccessError{URL: url, Err: errors.New("unknown archive")}
	}
	return ds, nil
}

const testCatalog = `parameter,temporal,init_date,nrt_date,opendap_my,opendap_nrt,title,value_min,value_max
thetao,monthly,2019-01-01,2022-06-01,fake://my/thetao,fake://nrt/thetao,Sea water potential temperature,0,35
sea_water_velocity,monthly,2019-01-01,2022-06-01,fake://my/cur,fake://nrt/cur,Sea water velocity,0,3
ZSD,monthly,2019-01-01,2022-06-01,fake://my/zsd,fake://nrt/zsd,Secchi disk depth,0,50
VHM0,3-hourly,2019-01-01,2022-06-01,fake://my/wav,fake://nrt/wav,Significant wave height,0,20
`

var testInit = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

func hoursAt(y int, m time.Month, d int) float64 {
	return domain.RelativeHours(time.Date(y, m, d, 0, 0, 0, 0, time.UTC), testInit)
}

func loadTestCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o600))
	store, err := catalog.Load(path)
	require.NoError(t, err)
	return store
}

func newTestUseCase(t *testing.T, opener archive.Opener) *FetchUseCase {
	t.Helper()
	return NewFetchUseCase(loadTestCatalog(t), opener, zerolog.Nop())
}

// temperatureArchives builds a multi-year and a near-real-time archive for
// the thetao product, meeting at the 2022-06-01 cutover.
func temperatureArchives() *fakeOpener {
	myAxes := map[string][]float64{
		"longitude": {115, 115.5},
		"latitude":  {-8},
		"depth":     {0.49, 10},
		"time": {
			hoursAt(2021, time.March, 1),
			hoursAt(2021, time.April, 1),
			hoursAt(2022, time.May, 1),
			hoursAt(2022, time.May, 15),
		},
	}
	nrtAxes := map[string][]float64{
		"longitude": {115, 115.5},
		"latitude":  {-8},
		"depth":     {0.49, 10},
		"time": {
			hoursAt(2022, time.June, 1),
			hoursAt(2022, time.July, 1),
			hoursAt(2022, time.August, 1),
		},
	}

	constant := func(value float64) func(idx []int) float64 {
		return func([]int) float64 { return value }
	}

	return &fakeOpener{
		datasets: map[string]archive.Dataset{
			"fake://my/thetao":  newGridDataset(myAxes, map[string]func(idx []int) float64{"thetao": constant(28)}),
			"fake://nrt/thetao": newGridDataset(nrtAxes, map[string]func(idx []int) float64{"thetao": constant(29)}),
		},
		fail: map[string]error{},
	}
}

func TestExecute_SplitRoute(t *testing.T) {
	uc := newTestUseCase(t, temperatureArchives())

	ds, err := uc.Execute(domain.Request{
		Parameter: "sst",
		Temporal:  "monthly",
		Start:     time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
		DepthMin: 0, DepthMax: 0,
	})
	require.NoError(t, err)

	// Two multi-year time steps and two near-real-time ones, each over
	// 1 depth x 1 lat x 2 lon.
	require.Len(t, ds.Rows, 8)

	// Multi-year rows come first, valued from the multi-year archive.
	assert.Equal(t, 28.0, ds.Rows[0].Values["thetao"])
	assert.Equal(t, 29.0, ds.Rows[7].Values["thetao"])

	// Timestamps are restored in absolute terms and span both vintages
	// without a gap at the cutover.
	assert.Equal(t, time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC), ds.Rows[0].Time)
	assert.Equal(t, time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), ds.Rows[4].Time)
	assert.Equal(t, time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC), ds.Rows[7].Time)

	// The depth point filter snapped to the shallowest level.
	assert.Equal(t, 0.49, ds.Rows[0].Depth)
}

func TestExecute_PointQuerySnaps(t *testing.T) {
	uc := newTestUseCase(t, temperatureArchives())

	ds, err := uc.Execute(domain.Request{
		Parameter: "sst",
		Temporal:  "monthly",
		Start:     time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
		DepthMin: 0, DepthMax: 0,
	})
	require.NoError(t, err)

	// A single instant before the cutover fetches from the multi-year
	// archive alone, snapped to the nearest axis value.
	require.Len(t, ds.Rows, 2)
	for _, row := range ds.Rows {
		assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), row.Time)
	}
}

func TestExecute_LegFailureAborts(t *testing.T) {
	opener := temperatureArchives()
	opener.fail["fake://nrt/thetao"] = errors.New("service unavailable")
	uc := newTestUseCase(t, opener)

	_, err := uc.Execute(domain.Request{
		Parameter: "sst",
		Temporal:  "monthly",
		Start:     time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
	})
	require.Error(t, err)

	var remoteErr *archive.RemoteAccessError
	require.True(t, errors.As(err, &remoteErr))
}

func TestExecute_DerivedCurrentSpeed(t *testing.T) {
	axes := map[string][]float64{
		"longitude": {115},
		"latitude":  {-8},
		"depth":     {0.49},
		"time":      {hoursAt(2021, time.March, 1)},
	}
	opener := &fakeOpener{
		datasets: map[string]archive.Dataset{
			"fake://my/cur": newGridDataset(axes, map[string]func(idx []int) float64{
				"uo": func([]int) float64 { return 3 },
				"vo": func([]int) float64 { return 4 },
			}),
		},
	}
	uc := newTestUseCase(t, opener)

	ds, err := uc.Execute(domain.Request{
		Parameter: "arus",
		Temporal:  "monthly",
		Start:     time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
	})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)

	row := ds.Rows[0]
	assert.Equal(t, 3.0, row.Values["uo"])
	assert.Equal(t, 4.0, row.Values["vo"])
	assert.InDelta(t, 5.0, row.Values["sea_water_velocity"], 1e-12)

	// The derived column is part of the result schema, after the raw ones.
	assert.Equal(t, []string{"uo", "vo", "sea_water_velocity"}, ds.Variables)
}

func TestExecute_SurfaceOnlySkipsDepth(t *testing.T) {
	// A clarity archive has no depth axis at all; the request's depth bounds
	// must not be resolved against it.
	axes := map[string][]float64{
		"longitude": {115, 116},
		"latitude":  {-8},
		"time":      {hoursAt(2021, time.March, 1)},
	}
	opener := &fakeOpener{
		datasets: map[string]archive.Dataset{
			"fake://my/zsd": newGridDataset(axes, map[string]func(idx []int) float64{
				"ZSD": func([]int) float64 { return 12 },
			}),
		},
	}
	uc := newTestUseCase(t, opener)

	ds, err := uc.Execute(domain.Request{
		Parameter: "kecerahan",
		Temporal:  "monthly",
		Start:     time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
		DepthMin: 0, DepthMax: 50,
	})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 0.0, ds.Rows[0].Depth)
	assert.Equal(t, 12.0, ds.Rows[0].Values["ZSD"])
}

func TestExecute_WaveResampling(t *testing.T) {
	// The wave product is archived 3-hourly; a monthly request fetches the
	// native steps and mean-resamples them.
	axes := map[string][]float64{
		"longitude": {115},
		"latitude":  {-8},
		"time":      {0, 3, 6, 9},
	}
	opener := &fakeOpener{
		datasets: map[string]archive.Dataset{
			"fake://my/wav": newGridDataset(axes, map[string]func(idx []int) float64{
				"VHM0": func(idx []int) float64 { return float64(idx[0] + 1) },
			}),
		},
	}
	uc := newTestUseCase(t, opener)

	ds, err := uc.Execute(domain.Request{
		Parameter: "gelombang",
		Temporal:  "monthly",
		Start:     time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
	})
	require.NoError(t, err)

	// Four 3-hourly samples collapse into one January bucket.
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), ds.Rows[0].Time)
	assert.InDelta(t, 2.5, ds.Rows[0].Values["VHM0"], 1e-12)
}

func TestExecute_UnknownParameter(t *testing.T) {
	uc := newTestUseCase(t, &fakeOpener{})

	_, err := uc.Execute(domain.Request{
		Parameter: "angin",
		Temporal:  "monthly",
		Start:     testInit,
		Stop:      testInit,
	})
	require.Error(t, err)

	var unknownErr *domain.UnknownParameterError
	require.True(t, errors.As(err, &unknownErr))
}

func TestExecute_InvalidBounds(t *testing.T) {
	uc := newTestUseCase(t, &fakeOpener{})

	_, err := uc.Execute(domain.Request{
		Parameter: "sst",
		Temporal:  "monthly",
		Start:     testInit,
		Stop:      testInit,
		LonMin:    117, LonMax: 114,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lon_min")
}

func TestExecute_EmptySelection(t *testing.T) {
	uc := newTestUseCase(t, temperatureArchives())

	// A bounding box that misses every grid point yields an empty result,
	// not an error.
	ds, err := uc.Execute(domain.Request{
		Parameter: "sst",
		Temporal:  "monthly",
		Start:     time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC),
		LonMin:    10, LonMax: 11,
		LatMin: -9, LatMax: -7,
	})
	require.NoError(t, err)
	assert.Empty(t, ds.Rows)
}

func TestExecute_FillValuesSurvive(t *testing.T) {
	axes := map[string][]float64{
		"longitude": {115},
		"latitude":  {-8},
		"depth":     {0.49},
		"time":      {hoursAt(2021, time.March, 1)},
	}
	opener := &fakeOpener{
		datasets: map[string]archive.Dataset{
			"fake://my/thetao": newGridDataset(axes, map[string]func(idx []int) float64{
				"thetao": func([]int) float64 { return math.NaN() },
			}),
		},
	}
	uc := newTestUseCase(t, opener)

	ds, err := uc.Execute(domain.Request{
		Parameter: "sst",
		Temporal:  "monthly",
		Start:     time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Stop:      time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		LonMin:    114, LonMax: 117,
		LatMin: -9, LatMax: -7,
	})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.True(t, math.IsNaN(ds.Rows[0].Values["thetao"]))
}
