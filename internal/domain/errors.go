package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyAxis is returned when a nearest-neighbor lookup is attempted
// against an empty coordinate axis, which indicates a malformed archive.
var ErrEmptyAxis = errors.New("empty coordinate axis")

// InvalidRangeError reports a request whose start date falls after its stop
// date. Bounds are expressed in relative hours from the catalog init date.
type InvalidRangeError struct {
	Start float64
	Stop  float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time range: start %+.1fh is after stop %+.1fh", e.Start, e.Stop)
}

// UnknownParameterError reports a request for a parameter that is not in the
// canonical name catalog.
type UnknownParameterError struct {
	Name    string
	Options []string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("%q is not a valid parameter (options: %s)", e.Name, strings.Join(e.Options, ", "))
}
