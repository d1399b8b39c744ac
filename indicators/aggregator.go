// Copyright (c) 2024 The Seoul Map Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package indicators

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/config"
	"github.com/haeseungsung/seoul-map/geo"
	"github.com/haeseungsung/seoul-map/prefetch"
	"github.com/haeseungsung/seoul-map/seoulapi"
)

// An AggregateCache holds per-borough licensing aggregates between requests.
// *prefetch.Store satisfies it.
type AggregateCache interface {
	Get(ctx context.Context, industryCode string) ([]prefetch.Aggregate, bool, error)
	Put(ctx context.Context, aggregates []prefetch.Aggregate) error
}

// An Aggregator resolves indicators. It is safe for concurrent use.
type Aggregator struct {
	// portal client (required)
	Client *seoulapi.Client
	// district boundaries, needed by the district-grain strategies
	Districts *geo.Boundaries
	// optional licensing aggregate cache
	Cache AggregateCache
	// rows per bulk page; when 0, 1000 is used
	PageSize int
	// bulk fetch ceiling; when 0, fetching pages to the declared total
	MaxRecords int
}

// NewAggregator builds an aggregator from the process configuration.
func NewAggregator(districts *geo.Boundaries, cache AggregateCache) *Aggregator {
	return &Aggregator{
		Client:     seoulapi.NewClient(),
		Districts:  districts,
		Cache:      cache,
		PageSize:   config.OpenApi.PageSize,
		MaxRecords: config.OpenApi.MaxRecords,
	}
}

// source pattern prefixes, one per strategy
const (
	patternAllBoroughs   = "ALL_GU:"
	patternBoroughFanout = "MULTI_GU:"
	patternLocalData     = "LOCALDATA_"
	patternCitywide      = "CITY:"
	patternTimeWindow    = "MULTI_DONG:"
	patternSpatial       = "SPATIAL_DONG:"
)

// Resolve runs the aggregation strategy selected by the descriptor's source
// pattern. The returned result carries a fresh generation tag, so callers
// that overlap resolutions of the same indicator can discard stale ones.
func (a *Aggregator) Resolve(ctx context.Context, descriptor catalog.Descriptor,
	options Options) (Result, error) {
	var result Result
	var err error

	pattern := descriptor.SourcePattern
	switch {
	case strings.HasPrefix(pattern, patternAllBoroughs):
		result, err = a.allBoroughs(ctx, descriptor)
	case strings.HasPrefix(pattern, patternBoroughFanout):
		result, err = a.boroughFanout(ctx, descriptor)
	case strings.HasPrefix(pattern, patternLocalData):
		result, err = a.localData(ctx, descriptor, options)
	case strings.HasPrefix(pattern, patternCitywide):
		result, err = a.citywide(ctx, descriptor)
	case strings.HasPrefix(pattern, patternTimeWindow):
		result, err = a.timeWindow(ctx, descriptor, options)
	case strings.HasPrefix(pattern, patternSpatial):
		result, err = a.spatial(ctx, descriptor)
	default:
		return Result{}, UnsupportedPatternError{Pattern: pattern}
	}
	if err != nil {
		return Result{}, err
	}

	result.IndicatorId = descriptor.Id
	result.Generation = uuid.New()
	if result.State == PartialFailure {
		slog.Warn("Indicator resolved partially", "indicator", descriptor.Id,
			"failures", len(result.Failures))
	}
	return result, nil
}

// answers the dataset endpoint for a single-endpoint strategy: the first
// endpoint binding when the descriptor carries bindings, the text after the
// pattern prefix otherwise
func endpointFor(descriptor catalog.Descriptor, prefix string) (string, error) {
	bindings, err := descriptor.Endpoints()
	if err != nil {
		return "", err
	}
	if len(bindings) > 0 && bindings[0].Id != "" {
		return bindings[0].Id, nil
	}
	return strings.TrimPrefix(descriptor.SourcePattern, prefix), nil
}

func (a *Aggregator) pageSize() int {
	if a.PageSize <= 0 {
		return 1000
	}
	return a.PageSize
}
