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
)

// the label citywide values carry in place of an area name
const cityLabel = "서울특별시"

// measurement-station identifier column; when present, stations are counted
// instead of rows
const stationIdField = "MSRSTN_CD"

// Citywide strategy: the dataset describes the whole city, so one page
// yields one value. The value is the row count, except for
// measurement-station datasets where several rows share a station; there
// the distinct station count is the value and the raw row count rides
// along as an auxiliary.
func (a *Aggregator) citywide(ctx context.Context, descriptor catalog.Descriptor) (Result, error) {
	endpoint, err := endpointFor(descriptor, patternCitywide)
	if err != nil {
		return Result{}, err
	}

	page, err := a.Client.FetchPage(ctx, endpoint, 1, a.pageSize())
	if err != nil {
		return Result{}, err
	}
	if page.NoData() {
		return Result{State: NoData, AsOfDate: page.AsOfDate}, nil
	}

	rows := len(page.Records)
	value := float64(rows)
	auxiliary := map[string]any{"rows": rows}

	stations := make(map[string]bool)
	for _, record := range page.Records {
		if id := record[stationIdField]; id != "" {
			stations[id] = true
		}
	}
	if len(stations) > 0 && len(stations) != rows {
		value = float64(len(stations))
		auxiliary["stations"] = len(stations)
	}

	return Result{
		Values:   []Value{{Borough: cityLabel, Value: value, Auxiliary: auxiliary}},
		State:    Resolved,
		AsOfDate: page.AsOfDate,
	}, nil
}
