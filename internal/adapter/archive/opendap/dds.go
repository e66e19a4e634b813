package opendap

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// The DDS (dataset descriptor structure) is the schema document a DAP2
// server returns for <url>.dds. Coordinate axes appear as 1-D arrays named
// after their dimension; data variables appear either as plain arrays or as
// Grid constructs whose ARRAY member carries the data and whose MAPS repeat
// the coordinate vectors.

type dim struct {
	name string
	size int
}

type ddsVar struct {
	name string
	dims []dim
	grid bool
}

type schema struct {
	vars map[string]ddsVar
}

var (
	declRe = regexp.MustCompile(`^\s*(?:Byte|Int16|UInt16|Int32|UInt32|Float32|Float64)\s+([A-Za-z_][\w-]*)((?:\[[^\]]+\])+)\s*;`)
	dimRe  = regexp.MustCompile(`\[\s*([\w-]+)\s*=\s*(\d+)\s*\]`)
)

func parseDecl(line string) (ddsVar, bool) {
	m := declRe.FindStringSubmatch(line)
	if m == nil {
		return ddsVar{}, false
	}

	v := ddsVar{name: m[1]}
	for _, d := range dimRe.FindAllStringSubmatch(m[2], -1) {
		size, err := strconv.Atoi(d[2])
		if err != nil {
			return ddsVar{}, false
		}
		v.dims = append(v.dims, dim{name: d[1], size: size})
	}

	return v, len(v.dims) > 0
}

// parseDDS extracts the variable schema from a DDS document. Grid MAPS
// declarations are skipped; the ARRAY member defines the grid's shape.
func parseDDS(r io.Reader) (*schema, error) {
	s := &schema{vars: make(map[string]ddsVar)}

	var (
		inGrid  bool
		inMaps  bool
		gridVar ddsVar
		haveArr bool
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case strings.HasPrefix(line, "Grid"):
			inGrid = true
			inMaps = false
			haveArr = false
		case inGrid && strings.EqualFold(line, "MAPS:"):
			inMaps = true
		case inGrid && strings.HasPrefix(line, "}"):
			// End of the grid construct: "} name;".
			name := strings.Trim(strings.TrimPrefix(line, "}"), " ;")
			if haveArr && name != "" {
				gridVar.name = name
				gridVar.grid = true
				s.vars[name] = gridVar
			}
			inGrid = false
			inMaps = false
		case inGrid:
			if inMaps {
				continue
			}
			if v, ok := parseDecl(line); ok {
				gridVar = v
				haveArr = true
			}
		default:
			if v, ok := parseDecl(line); ok {
				s.vars[v.name] = v
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan DDS: %w", err)
	}

	if len(s.vars) == 0 {
		return nil, fmt.Errorf("DDS declares no array variables")
	}

	return s, nil
}

// isAxis reports whether a schema variable is a coordinate axis: a 1-D
// array named after its own dimension.
func (v ddsVar) isAxis() bool {
	return len(v.dims) == 1 && v.dims[0].name == v.name
}

// varAttrs holds the CF packing attributes of one variable, taken from the
// DAS document. Values on the wire are packed; the client unpacks them with
// value*scale + offset and maps fill values to NaN.
type varAttrs struct {
	scale     float64
	offset    float64
	fill      float64
	hasScale  bool
	hasOffset bool
	hasFill   bool
}

// parseDAS extracts per-variable packing attributes from a DAS document.
// Attributes the pipeline does not use are ignored.
func parseDAS(r io.Reader) (map[string]varAttrs, error) {
	attrs := make(map[string]varAttrs)

	var (
		depth   int
		current string
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if strings.HasSuffix(line, "{") {
			if depth == 1 {
				current = strings.TrimSpace(strings.TrimSuffix(line, "{"))
			}
			depth++
			continue
		}
		if strings.HasPrefix(line, "}") {
			depth--
			if depth == 1 {
				current = ""
			}
			continue
		}
		if depth != 2 || current == "" {
			continue
		}

		fields := strings.Fields(strings.TrimSuffix(line, ";"))
		if len(fields) != 3 {
			continue
		}

		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}

		a := attrs[current]
		switch fields[1] {
		case "scale_factor":
			a.scale = value
			a.hasScale = true
		case "add_offset":
			a.offset = value
			a.hasOffset = true
		case "_FillValue", "missing_value":
			a.fill = value
			a.hasFill = true
		default:
			continue
		}
		attrs[current] = a
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan DAS: %w", err)
	}

	return attrs, nil
}
