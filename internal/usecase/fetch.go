package usecase

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lautanlab/lautan/internal/adapter/archive"
	"github.com/lautanlab/lautan/internal/adapter/catalog"
	"github.com/lautanlab/lautan/internal/domain"
)

// PipelineContext carries the resolved state of one fetch run: the catalog
// entry driving it, the expanded raw variable list, and the per-dimension
// filters. Built once and threaded through every stage; no ambient state.
type PipelineContext struct {
	Request   domain.Request
	Param     domain.Parameter
	Entry     catalog.Entry
	Variables []string
	Filters   domain.FilterSet
}

// FetchUseCase orchestrates the subset-fetch pipeline: catalog lookup,
// source routing, per-archive subset fetch, derived-field computation and
// assembly. One request per invocation; strictly sequential.
type FetchUseCase struct {
	catalog *catalog.Store
	opener  archive.Opener
	logger  zerolog.Logger
}

// NewFetchUseCase creates a fetch use case.
func NewFetchUseCase(cat *catalog.Store, opener archive.Opener, logger zerolog.Logger) *FetchUseCase {
	return &FetchUseCase{
		catalog: cat,
		opener:  opener,
		logger:  logger,
	}
}

// Execute runs the pipeline for one request.
func (uc *FetchUseCase) Execute(req domain.Request) (*domain.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	param, err := domain.LookupParameter(req.Parameter)
	if err != nil {
		return nil, err
	}

	// Some products are published at a single native resolution and
	// resampled to the requested one after the fetch.
	temporal := req.Temporal
	if param.ArchiveTemporal != "" {
		temporal = param.ArchiveTemporal
	}

	entry, err := uc.catalog.Lookup(param.CatalogName, temporal)
	if err != nil {
		return nil, err
	}

	pctx, err := uc.buildContext(req, param, entry)
	if err != nil {
		return nil, err
	}

	start := domain.RelativeHours(req.Start, entry.InitDate)
	stop := domain.RelativeHours(req.Stop, entry.InitDate)
	nrt := domain.RelativeHours(entry.NRTDate, entry.InitDate)

	legs, err := domain.Route(start, stop, nrt)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("parameter", param.Name).
		Str("temporal", temporal).
		Int("legs", len(legs)).
		Msg("routed request")

	// Legs are fetched sequentially, multi-year first. A failed leg aborts
	// the whole request: a partial result would silently break the
	// full-range coverage guarantee.
	rowSets := make([][]domain.Row, 0, len(legs))
	for _, leg := range legs {
		rows, err := uc.fetchSubset(pctx, leg)
		if err != nil {
			return nil, err
		}
		uc.logger.Info().
			Str("vintage", leg.Vintage.String()).
			Int("rows", len(rows)).
			Msg("fetched archive subset")
		rowSets = append(rowSets, rows)
	}

	if param.ArchiveTemporal != "" && req.Temporal != param.ArchiveTemporal {
		period, err := domain.PeriodFor(req.Temporal)
		if err != nil {
			return nil, err
		}
		for i := range rowSets {
			rowSets[i] = domain.ResampleMean(rowSets[i], entry.InitDate, period)
		}
	}

	variables := pctx.Variables
	if d, ok := domain.DerivedFor(param.Derived); ok {
		for i := range rowSets {
			if err := d.Augment(rowSets[i]); err != nil {
				return nil, err
			}
		}
		variables = append(append([]string(nil), variables...), d.Name)
	}

	return domain.Assemble(rowSets, variables, entry.InitDate), nil
}

// buildContext resolves the variable list and the request-level filters.
// The time filter holds the bounds of the whole request; routed legs narrow
// it per archive.
func (uc *FetchUseCase) buildContext(req domain.Request, param domain.Parameter, entry catalog.Entry) (*PipelineContext, error) {
	variables := append([]string(nil), param.Variables...)
	if d, ok := domain.DerivedFor(param.Derived); ok {
		variables = d.ExpandVariables(variables)
	}

	filters := domain.FilterSet{
		Lon: domain.RangeFilter(req.LonMin, req.LonMax),
		Lat: domain.RangeFilter(req.LatMin, req.LatMax),
	}

	start := domain.RelativeHours(req.Start, entry.InitDate)
	stop := domain.RelativeHours(req.Stop, entry.InitDate)
	if req.PointQuery() {
		filters.Time = domain.PointFilter(start)
	} else {
		filters.Time = domain.RangeFilter(start, stop)
	}

	// Surface-only variables carry no depth dimension; the depth predicate
	// is skipped entirely for them.
	if !param.SurfaceOnly {
		var f domain.Filter
		if req.DepthMin == req.DepthMax {
			f = domain.PointFilter(req.DepthMin)
		} else {
			f = domain.RangeFilter(req.DepthMin, req.DepthMax)
		}
		filters.Depth = &f
	} else {
		uc.logger.Debug().Str("parameter", param.Name).Msg("skipping depth filter for surface-only variable")
	}

	return &PipelineContext{
		Request:   req,
		Param:     param,
		Entry:     entry,
		Variables: variables,
		Filters:   filters,
	}, nil
}
