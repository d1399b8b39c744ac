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
	"fmt"
	"strconv"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/fieldmap"
	"github.com/haeseungsung/seoul-map/seoulapi"
)

// The living-population datasets publish one row per district per hour, in
// hour-major order: 467 district rows for hour 0, then 467 for hour 1, and
// so on, day after day.
const (
	districtsPerHour = 467
	dayStride        = 24 * districtsPerHour
)

// hours sampled (and averaged) when the caller doesn't ask for one
var sampledHours = []int{0, 4, 8, 12, 16, 20}

// row windows (1-based inclusive start/end) addressing one hour's district
// rows on each of the two most recent days in the dataset
func hourWindows(hour int) [2][2]int {
	first := 1 + hour*districtsPerHour
	second := first + dayStride
	return [2][2]int{
		{first, first + districtsPerHour - 1},
		{second, second + districtsPerHour - 1},
	}
}

// District time-windowed sampling strategy: rather than paging an enormous
// hour-by-district dataset, fetch just the windows covering the requested
// hour and reduce per district. District codes are translated to names
// through the boundary collection. The window arithmetic assumes the
// dataset's row order; each fetched window's reported time bucket is
// checked against the requested hour and any disagreement is surfaced on
// the result.
func (a *Aggregator) timeWindow(ctx context.Context, descriptor catalog.Descriptor,
	options Options) (Result, error) {
	if a.Districts == nil {
		return Result{}, MissingDependencyError{Dependency: "district boundaries"}
	}
	endpoint, err := endpointFor(descriptor, patternTimeWindow)
	if err != nil {
		return Result{}, err
	}

	hours := sampledHours
	if options.Hour != nil {
		hours = []int{*options.Hour}
	}

	var records []seoulapi.RawRecord
	var asOfDate, mismatch string
	for _, hour := range hours {
		for _, window := range hourWindows(hour) {
			page, err := a.Client.FetchPage(ctx, endpoint, window[0], window[1])
			if err != nil {
				return Result{}, err
			}
			if page.NoData() {
				continue
			}
			if asOfDate == "" {
				asOfDate = page.AsOfDate
			}
			if mismatch == "" {
				mismatch = verifyBucket(page.Records, hour)
			}
			records = append(records, page.Records...)
		}
	}
	if len(records) == 0 {
		return Result{State: NoData, AsOfDate: asOfDate}, nil
	}

	fields := fieldmap.Discover(records)
	if fields.District == "" {
		return Result{}, FieldResolutionError{Endpoint: endpoint, Role: "district"}
	}
	valueField := descriptor.ValueField
	if valueField == "" {
		valueField = fields.Measure
	}

	codeNames := a.Districts.DistrictCodeNames()
	type accumulator struct {
		sum   float64
		count int
	}
	grouped := make(map[string]*accumulator)
	var order []string
	for _, record := range records {
		district := districtName(record[fields.District], codeNames)
		if district == "" {
			continue
		}
		acc, found := grouped[district]
		if !found {
			acc = &accumulator{}
			grouped[district] = acc
			order = append(order, district)
		}
		if valueField != "" {
			if number, ok := fieldmap.Number(record, valueField); ok {
				acc.sum += number
				acc.count++
			}
		} else {
			acc.count++
		}
	}

	values := make([]Value, 0, len(order))
	for _, district := range order {
		acc := grouped[district]
		var value float64
		if valueField != "" && acc.count > 0 {
			value = roundInt(acc.sum / float64(acc.count))
		} else {
			value = float64(acc.count)
		}
		values = append(values, Value{District: district, Value: value})
	}

	return Result{
		Values:         values,
		State:          Resolved,
		AsOfDate:       asOfDate,
		BucketMismatch: mismatch,
	}, nil
}

// resolves a district identifier: 8-digit codes go through the boundary
// table, names pass through
func districtName(identifier string, codeNames map[string]string) string {
	if identifier == "" {
		return ""
	}
	if len(identifier) >= 8 {
		if _, err := strconv.Atoi(identifier[:8]); err == nil {
			return codeNames[identifier[:8]]
		}
	}
	return identifier
}

// columns that carry an hour-of-day bucket (as opposed to a date)
var hourBucketFields = []string{"TMZON_PD_SE", "TMZON_SE"}

// checks a window's reported time bucket against the hour its offsets were
// computed for; "" means agreement or no bucket field to check
func verifyBucket(records []seoulapi.RawRecord, hour int) string {
	if len(records) == 0 {
		return ""
	}
	for _, field := range hourBucketFields {
		value, found := records[0][field]
		if !found || value == "" {
			continue
		}
		reported, err := strconv.Atoi(value)
		if err != nil || reported < 0 || reported > 23 || reported == hour {
			return ""
		}
		return fmt.Sprintf("requested hour %d but the window reports bucket %d",
			hour, reported)
	}
	return ""
}
