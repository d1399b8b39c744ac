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

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/fieldmap"
	"github.com/haeseungsung/seoul-map/seoulapi"
)

// bike share dataset columns
const (
	rackCountField = "rackTotCnt"
	bikeCountField = "parkingBikeTotCnt"
)

// Spatial point aggregation strategy: fetch point records (bike share
// stations), locate each point's containing district, and reduce per
// district. The value is the availability ratio (bikes per rack); rack,
// bike and station sums ride along as auxiliaries. Points landing in no
// district are counted on the result, never silently dropped.
func (a *Aggregator) spatial(ctx context.Context, descriptor catalog.Descriptor) (Result, error) {
	if a.Districts == nil {
		return Result{}, MissingDependencyError{Dependency: "district boundaries"}
	}
	endpoint, err := endpointFor(descriptor, patternSpatial)
	if err != nil {
		return Result{}, err
	}

	records, asOfDate, err := a.fetchAllJsonRows(ctx, endpoint)
	if err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		return Result{State: NoData, AsOfDate: asOfDate}, nil
	}

	fields := fieldmap.Discover(records)
	if !fields.HasPoint() {
		return Result{}, FieldResolutionError{Endpoint: endpoint, Role: "coordinate"}
	}

	type districtSums struct {
		racks, bikes, stations float64
	}
	grouped := make(map[string]*districtSums)
	var order []string
	var matched, unmatched int

	for _, record := range records {
		lat, lng, ok := fieldmap.Point(record, fields.Latitude, fields.Longitude)
		if !ok {
			unmatched++
			continue
		}
		located, found := a.Districts.Locate(lng, lat)
		if !found || located.District == "" {
			unmatched++
			continue
		}
		matched++

		sums, known := grouped[located.District]
		if !known {
			sums = &districtSums{}
			grouped[located.District] = sums
			order = append(order, located.District)
		}
		sums.stations++
		if racks, ok := fieldmap.Number(record, rackCountField); ok {
			sums.racks += racks
		}
		if bikes, ok := fieldmap.Number(record, bikeCountField); ok {
			sums.bikes += bikes
		}
	}

	values := make([]Value, 0, len(order))
	for _, district := range order {
		sums := grouped[district]
		var ratio float64
		if sums.racks > 0 {
			ratio = round1(sums.bikes / sums.racks * 100)
		}
		values = append(values, Value{
			District: district,
			Value:    ratio,
			Auxiliary: map[string]any{
				"racks":    int(sums.racks),
				"bikes":    int(sums.bikes),
				"stations": int(sums.stations),
			},
		})
	}

	return Result{
		Values:          values,
		State:           Resolved,
		AsOfDate:        asOfDate,
		MatchedPoints:   matched,
		UnmatchedPoints: unmatched,
	}, nil
}

// pages a JSON-dialect endpoint to its declared total
func (a *Aggregator) fetchAllJsonRows(ctx context.Context,
	endpoint string) ([]seoulapi.RawRecord, string, error) {
	pageSize := a.pageSize()
	first, err := a.Client.FetchJsonPage(ctx, endpoint, 1, pageSize)
	if err != nil {
		return nil, "", err
	}
	if first.NoData() {
		return nil, first.AsOfDate, nil
	}

	records := first.Records
	total := first.TotalCount
	if a.MaxRecords > 0 && total > a.MaxRecords {
		total = a.MaxRecords
	}
	for start := pageSize + 1; start <= total; start += pageSize {
		end := start + pageSize - 1
		if end > total {
			end = total
		}
		page, err := a.Client.FetchJsonPage(ctx, endpoint, start, end)
		if err != nil {
			return nil, first.AsOfDate, err
		}
		if len(page.Records) == 0 {
			break
		}
		records = append(records, page.Records...)
	}
	return records, first.AsOfDate, nil
}
