// Package opendap provides a DAP2 client for subsetting remote gridded
// archives over HTTP without downloading whole files.
package opendap

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lautanlab/lautan/internal/adapter/archive"
)

// DefaultTimeout bounds each metadata or data request against an
// unreachable service.
const DefaultTimeout = 60 * time.Second

// Client opens DAP2 archives. Opening reads only the DDS and DAS documents;
// data is fetched per hyperslab through the ascii response form.
type Client struct {
	httpClient *http.Client
	username   string
	password   string
	logger     zerolog.Logger
}

// NewClient creates a DAP2 client with a bounded per-request timeout.
// Credentials are optional; when set they are sent as basic auth.
func NewClient(timeout time.Duration, username, password string, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		username:   username,
		password:   password,
		logger:     logger,
	}
}

// Open fetches and parses the archive's schema. No bulk data is read.
func (c *Client) Open(rawURL string) (archive.Dataset, error) {
	ddsBody, err := c.get(rawURL + ".dds")
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: rawURL, Err: err}
	}
	sch, err := parseDDS(bytes.NewReader(ddsBody))
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: rawURL, Err: err}
	}

	dasBody, err := c.get(rawURL + ".das")
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: rawURL, Err: err}
	}
	attrs, err := parseDAS(bytes.NewReader(dasBody))
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: rawURL, Err: err}
	}

	c.logger.Debug().Str("url", rawURL).Int("variables", len(sch.vars)).Msg("opened archive")

	return &dataset{client: c, url: rawURL, schema: sch, attrs: attrs}, nil
}

func (c *Client) get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// dataset is one opened DAP2 archive.
type dataset struct {
	client *Client
	url    string
	schema *schema
	attrs  map[string]varAttrs
}

func (d *dataset) HasAxis(name string) bool {
	v, ok := d.schema.vars[name]
	return ok && v.isAxis()
}

func (d *dataset) Axis(name string) ([]float64, error) {
	v, ok := d.schema.vars[name]
	if !ok || !v.isAxis() {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: fmt.Errorf("no coordinate axis %q", name)}
	}

	body, err := d.client.get(d.url + ".ascii?" + name)
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: err}
	}

	values, err := parseASCIIValues(bytes.NewReader(body), v.dims[0].size)
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: d.url, Err: fmt.Errorf("axis %s: %w", name, err)}
	}

	return values, nil
}

func (d *dataset) Variable(name string) (archive.Variable, error) {
	v, ok := d.schema.vars[name]
	if !ok {
		return nil, &archive.VariableNotFoundError{URL: d.url, Variable: name}
	}
	return &variable{ds: d, meta: v, attrs: d.attrs[name]}, nil
}

func (d *dataset) Close() error {
	return nil
}

// variable is one data variable of an opened archive.
type variable struct {
	ds    *dataset
	meta  ddsVar
	attrs varAttrs
}

func (v *variable) Dims() []string {
	names := make([]string, len(v.meta.dims))
	for i, d := range v.meta.dims {
		names[i] = d.name
	}
	return names
}

func (v *variable) ReadSection(start, count []int) ([]float64, error) {
	if len(start) != len(v.meta.dims) || len(count) != len(v.meta.dims) {
		return nil, fmt.Errorf("variable %s: section rank %d does not match %d dimensions", v.meta.name, len(start), len(v.meta.dims))
	}

	// Project the array member of a Grid construct directly, so the
	// response carries no map vectors.
	projection := v.meta.name
	if v.meta.grid {
		projection = v.meta.name + "." + v.meta.name
	}

	want := 1
	var constraint strings.Builder
	constraint.WriteString(projection)
	for i := range start {
		fmt.Fprintf(&constraint, "[%d:%d]", start[i], start[i]+count[i]-1)
		want *= count[i]
	}

	body, err := v.ds.client.get(v.ds.url + ".ascii?" + constraint.String())
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: v.ds.url, Err: err}
	}

	values, err := parseASCIIValues(bytes.NewReader(body), want)
	if err != nil {
		return nil, &archive.RemoteAccessError{URL: v.ds.url, Err: fmt.Errorf("variable %s: %w", v.meta.name, err)}
	}

	v.unpack(values)
	return values, nil
}

// unpack applies the CF packing attributes in place: fill values become NaN,
// everything else is scaled and offset.
func (v *variable) unpack(values []float64) {
	scale := 1.0
	if v.attrs.hasScale {
		scale = v.attrs.scale
	}
	offset := 0.0
	if v.attrs.hasOffset {
		offset = v.attrs.offset
	}
	if scale == 1 && offset == 0 && !v.attrs.hasFill {
		return
	}

	for i, val := range values {
		if v.attrs.hasFill && val == v.attrs.fill {
			values[i] = math.NaN()
			continue
		}
		values[i] = val*scale + offset
	}
}

// parseASCIIValues extracts the numeric payload of a DAP2 ascii response.
// The response repeats the projected DDS, a separator line, then data lines
// of comma-separated values, multidimensional rows prefixed with an index
// tuple like [0][2]. Declaration headers and index prefixes do not parse as
// floats and are skipped.
func parseASCIIValues(r io.Reader, want int) ([]float64, error) {
	values := make([]float64, 0, want)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		for _, field := range strings.Split(sc.Text(), ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan ascii response: %w", err)
	}

	if len(values) != want {
		return nil, fmt.Errorf("expected %d values in ascii response, got %d", want, len(values))
	}

	return values, nil
}
