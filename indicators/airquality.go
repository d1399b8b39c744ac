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

// one pollutant column of the air quality dataset and how its mean is
// rounded
type pollutant struct {
	field string
	key   string
	round func(float64) float64
}

var pollutants = []pollutant{
	{"PM", "pm10", round1},
	{"FPM", "pm25", round1},
	{"OZON", "o3", round3},
	{"NTDX", "no2", round3},
	{"CBMX", "co", round1},
	{"CAI_IDX", "cai", roundInt},
}

// PM2.5 thresholds of the four air quality levels
const (
	pm25Good     = 15
	pm25Moderate = 35
	pm25Poor     = 75
)

// boroughs whose measurement stations stopped reporting; the dataset still
// emits stale rows for them, so they are dropped by name
var boroughsWithoutStations = map[string]bool{
	"은평구": true,
	"송파구": true,
	"구로구": true,
}

// AirQualityLevel grades a PM2.5 concentration (µg/m³) on the four-level
// scale shown on the map.
func AirQualityLevel(pm25 float64) string {
	switch {
	case pm25 <= pm25Good:
		return "좋음"
	case pm25 <= pm25Moderate:
		return "보통"
	case pm25 <= pm25Poor:
		return "나쁨"
	default:
		return "매우나쁨"
	}
}

// All-boroughs single endpoint strategy: one page covers every measurement
// station, rows are grouped by station name (one station per borough), and
// pollutant readings are averaged per group. The primary value is the mean
// PM2.5, rounded to an integer; the auxiliary pm25 keeps one decimal.
// Boroughs without reporting stations are excluded by name.
func (a *Aggregator) allBoroughs(ctx context.Context, descriptor catalog.Descriptor) (Result, error) {
	endpoint, err := endpointFor(descriptor, patternAllBoroughs)
	if err != nil {
		return Result{}, err
	}

	page, err := a.Client.FetchPage(ctx, endpoint, 1, 100)
	if err != nil {
		return Result{}, err
	}
	if page.NoData() || len(page.Records) == 0 {
		return Result{State: NoData, AsOfDate: page.AsOfDate}, nil
	}

	boroughField := fieldmap.Resolve(fieldmap.Borough, page.Records)
	if boroughField == "" {
		return Result{}, FieldResolutionError{Endpoint: endpoint, Role: "borough"}
	}

	grouped := make(map[string][]seoulapi.RawRecord)
	var order []string
	for _, record := range page.Records {
		borough := record[boroughField]
		if borough == "" || boroughsWithoutStations[borough] {
			continue
		}
		if _, found := grouped[borough]; !found {
			order = append(order, borough)
		}
		grouped[borough] = append(grouped[borough], record)
	}

	values := make([]Value, 0, len(order))
	for _, borough := range order {
		records := grouped[borough]
		auxiliary := map[string]any{"stations": len(records)}

		var pm25 float64
		for _, p := range pollutants {
			var sum float64
			var n int
			for _, record := range records {
				if reading, ok := fieldmap.Number(record, p.field); ok {
					sum += reading
					n++
				}
			}
			if n == 0 {
				continue
			}
			mean := sum / float64(n)
			auxiliary[p.key] = p.round(mean)
			if p.field == "FPM" {
				pm25 = mean
			}
		}

		// a borough with no usable PM2.5 readings can't be graded
		level := "보통"
		if pm25 > 0 {
			level = AirQualityLevel(pm25)
		}
		auxiliary["level"] = level

		values = append(values, Value{
			Borough:   borough,
			Value:     roundInt(pm25),
			Auxiliary: auxiliary,
		})
	}

	return Result{Values: values, State: Resolved, AsOfDate: page.AsOfDate}, nil
}
