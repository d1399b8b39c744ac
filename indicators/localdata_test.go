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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/prefetch"
	"github.com/haeseungsung/seoul-map/smtest"
)

// registers an empty licensing dataset for all 25 boroughs of an industry
func serveEmptyIndustry(portal *smtest.Portal, industryCode string) {
	for _, service := range catalog.GenerateBoroughServices(industryCode) {
		portal.Serve(service.Service(), smtest.Dataset{Empty: true})
	}
}

// builds licensing rows with the given counts of active and closed
// establishments
func licensingRows(active, closed, other int) []map[string]string {
	var rows []map[string]string
	for i := 0; i < active; i++ {
		rows = append(rows, map[string]string{
			"MGTNO":       fmt.Sprintf("A%04d", i),
			"TRDSTATEGBN": "01",
			"RDNWHLADDR":  "서울특별시 마포구 월드컵북로 21",
		})
	}
	for i := 0; i < closed; i++ {
		rows = append(rows, map[string]string{
			"MGTNO":       fmt.Sprintf("C%04d", i),
			"TRDSTATEGBN": "03",
		})
	}
	for i := 0; i < other; i++ {
		rows = append(rows, map[string]string{
			"MGTNO":       fmt.Sprintf("O%04d", i),
			"TRDSTATEGBN": "02",
		})
	}
	return rows
}

var karaokeAll = catalog.Descriptor{
	Id:            "karaoke_all",
	SourcePattern: "LOCALDATA_072217",
	MetricType:    "count",
}

func TestLocalDataCountsPerBorough(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	serveEmptyIndustry(portal, "072217")
	portal.Serve("LOCALDATA_072217_MP", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_MP",
		Rows:       licensingRows(8, 3, 1),
	})
	portal.Serve("LOCALDATA_072217_YS", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_YS",
		Rows:       licensingRows(4, 0, 0),
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), karaokeAll, Options{})
	assert.Nil(err)
	assert.Equal(Resolved, result.State)
	assert.Equal(25, len(result.Values))

	byBorough := map[string]Value{}
	for _, value := range result.Values {
		byBorough[value.Borough] = value
	}
	assert.Equal(12.0, byBorough["마포구"].Value)
	assert.Equal(8, byBorough["마포구"].Auxiliary["active"])
	assert.Equal(3, byBorough["마포구"].Auxiliary["closed"])
	assert.Equal(4.0, byBorough["용산구"].Value)
	assert.Equal(0.0, byBorough["강남구"].Value)
}

func TestLocalDataMetricTypes(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	serveEmptyIndustry(portal, "072217")
	portal.Serve("LOCALDATA_072217_MP", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_MP",
		Rows:       licensingRows(6, 3, 1),
	})
	aggregator := testAggregator(t, portal)

	for metricType, expected := range map[string]float64{
		"count":        10,
		"count_active": 6,
		"count_closed": 3,
		"active_ratio": 60.0,
	} {
		descriptor := karaokeAll
		descriptor.MetricType = metricType
		result, err := aggregator.Resolve(context.Background(), descriptor, Options{})
		assert.Nil(err)

		for _, value := range result.Values {
			if value.Borough == "마포구" {
				assert.Equal(expected, value.Value, metricType)
			}
		}
	}
}

func TestLocalDataPagesToCompletion(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	serveEmptyIndustry(portal, "072217")
	portal.Serve("LOCALDATA_072217_MP", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_MP",
		Rows:       licensingRows(2500, 0, 0),
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), karaokeAll, Options{})
	assert.Nil(err)

	for _, value := range result.Values {
		if value.Borough == "마포구" {
			assert.Equal(2500.0, value.Value)
		}
	}
	// one probe plus ceil(2500/1000) bulk pages
	assert.Equal(4, portal.RequestCount("LOCALDATA_072217_MP"))
}

func TestLocalDataAppliesFilter(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	serveEmptyIndustry(portal, "072217")
	portal.Serve("LOCALDATA_072217_MP", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_MP",
		Rows:       licensingRows(6, 3, 1),
	})
	aggregator := testAggregator(t, portal)

	descriptor := karaokeAll
	descriptor.FilterCondition = "TRDSTATEGBN=03"
	result, err := aggregator.Resolve(context.Background(), descriptor, Options{})
	assert.Nil(err)

	for _, value := range result.Values {
		if value.Borough == "마포구" {
			assert.Equal(3.0, value.Value)
		}
	}
}

func TestLocalDataFullModeCarriesTaggedRows(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	serveEmptyIndustry(portal, "072217")
	portal.Serve("LOCALDATA_072217_YS", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_YS",
		Rows: []map[string]string{
			// address names a different borough than the service
			{"MGTNO": "X1", "TRDSTATEGBN": "01", "RDNWHLADDR": "서울특별시 마포구 성산로 4"},
			{"MGTNO": "X2", "TRDSTATEGBN": "01"},
		},
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), karaokeAll,
		Options{Full: true})
	assert.Nil(err)
	assert.Equal(2, len(result.Records))

	boroughs := map[string]string{}
	for _, record := range result.Records {
		boroughs[record["MGTNO"]] = record["GU"]
	}
	// the address wins over the service's borough; rows with no address
	// fall back to it
	assert.Equal("마포구", boroughs["X1"])
	assert.Equal("용산구", boroughs["X2"])
}

func TestLocalDataPartialFailure(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	for _, service := range catalog.GenerateBoroughServices("072217") {
		if service.BoroughCode == "MP" {
			continue // no dataset registered, the portal answers 404
		}
		portal.Serve(service.Service(), smtest.Dataset{Empty: true})
	}
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), karaokeAll, Options{})
	assert.Nil(err)
	assert.Equal(PartialFailure, result.State)
	assert.Equal(1, len(result.Failures))
	assert.Equal("마포구", result.Failures[0].Unit)
	assert.Equal("LOCALDATA_072217_MP", result.Failures[0].Endpoint)
}

func TestLocalDataUsesCache(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	store, err := prefetch.Open(filepath.Join(t.TempDir(), "prefetch.db"), time.Hour)
	assert.Nil(err)
	defer store.Close()

	assert.Nil(store.Put(context.Background(), []prefetch.Aggregate{
		{IndustryCode: "072217", Borough: "마포구", Total: 42, Active: 40, Closed: 2},
	}))

	aggregator := testAggregator(t, portal)
	aggregator.Cache = store

	result, err := aggregator.Resolve(context.Background(), karaokeAll, Options{})
	assert.Nil(err)
	assert.Equal(Resolved, result.State)
	assert.Equal(1, len(result.Values))
	assert.Equal(42.0, result.Values[0].Value)
	// served entirely from the cache
	assert.Equal(0, len(portal.Requests()))
}

func TestLocalDataFillsCacheAfterFetching(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	serveEmptyIndustry(portal, "072217")
	portal.Serve("LOCALDATA_072217_MP", smtest.Dataset{
		ServiceKey: "LOCALDATA_072217_MP",
		Rows:       licensingRows(5, 1, 0),
	})

	store, err := prefetch.Open(filepath.Join(t.TempDir(), "prefetch.db"), time.Hour)
	assert.Nil(err)
	defer store.Close()

	aggregator := testAggregator(t, portal)
	aggregator.Cache = store

	_, err = aggregator.Resolve(context.Background(), karaokeAll, Options{})
	assert.Nil(err)

	aggregates, found, err := store.Get(context.Background(), "072217")
	assert.Nil(err)
	assert.True(found)
	assert.Equal(25, len(aggregates))
}
