// Package archive defines read-only access to remote gridded archives.
package archive

import (
	"fmt"
	"net/url"
)

// Opener opens an archive by URL, reading metadata only. Bulk data is read
// lazily through the returned Dataset.
type Opener interface {
	Open(rawURL string) (Dataset, error)
}

// Dataset is one opened archive. Axes are the 1-D coordinate variables
// (longitude, latitude, time, depth); data variables are read in hyperslabs
// through Variable.
type Dataset interface {
	// Axis returns the full value set of a named coordinate axis.
	Axis(name string) ([]float64, error)
	// HasAxis reports whether the archive declares the named axis; surface
	// products carry no depth axis.
	HasAxis(name string) bool
	// Variable resolves a named data variable, failing with a
	// VariableNotFoundError when it is absent from the archive's schema.
	Variable(name string) (Variable, error)
	Close() error
}

// Variable is one data variable of an opened archive.
type Variable interface {
	// Dims lists the dimension names in the variable's native order.
	Dims() []string
	// ReadSection reads the hyperslab beginning at start with the given
	// per-dimension counts, flattened in the native dimension order.
	ReadSection(start, count []int) ([]float64, error)
}

// RemoteAccessError reports a failure to open or read an archive. In
// split-route mode, failure of either sub-fetch aborts the whole request.
type RemoteAccessError struct {
	URL string
	Err error
}

func (e *RemoteAccessError) Error() string {
	return fmt.Sprintf("failed to access archive %s: %v", e.URL, e.Err)
}

func (e *RemoteAccessError) Unwrap() error {
	return e.Err
}

// VariableNotFoundError reports a requested variable absent from an opened
// archive's schema.
type VariableNotFoundError struct {
	URL      string
	Variable string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %s not found in archive %s", e.Variable, e.URL)
}

// SchemeOpener dispatches Open calls to a concrete opener by URL scheme.
// URLs without a scheme are treated as local file paths under the "" key.
type SchemeOpener map[string]Opener

// Open implements Opener.
func (s SchemeOpener) Open(rawURL string) (Dataset, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &RemoteAccessError{URL: rawURL, Err: err}
	}

	opener, ok := s[u.Scheme]
	if !ok {
		return nil, &RemoteAccessError{URL: rawURL, Err: fmt.Errorf("no opener for scheme %q", u.Scheme)}
	}

	return opener.Open(rawURL)
}
