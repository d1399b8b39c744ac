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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/smtest"
)

var airDescriptor = catalog.Descriptor{
	Id:            "air_pm25",
	SourcePattern: "ALL_GU:RealtimeCityAir/ALL",
}

func TestAirQualityLevelBoundaries(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("좋음", AirQualityLevel(15.0))
	assert.Equal("보통", AirQualityLevel(15.1))
	assert.Equal("보통", AirQualityLevel(35.0))
	assert.Equal("나쁨", AirQualityLevel(35.1))
	assert.Equal("나쁨", AirQualityLevel(75.0))
	assert.Equal("매우나쁨", AirQualityLevel(75.1))
}

func TestAirQualityGroupsAndAverages(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{
		ServiceKey: "RealtimeCityAir",
		Rows: []map[string]string{
			{"MSRSTN_NM": "중구", "PM": "30", "FPM": "12", "OZON": "0.031",
				"NTDX": "0.018", "CBMX": "0.5", "CAI_IDX": "62"},
			{"MSRSTN_NM": "중구", "PM": "35", "FPM": "16", "OZON": "0.0305",
				"NTDX": "0.020", "CBMX": "0.6", "CAI_IDX": "64"},
			{"MSRSTN_NM": "종로구", "PM": "48", "FPM": "40"},
		},
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.Nil(err)
	assert.Equal(Resolved, result.State)
	assert.Equal(2, len(result.Values))

	junggu := result.Values[0]
	assert.Equal("중구", junggu.Borough)
	// mean FPM of 12 and 16, rounded to one decimal
	assert.Equal(14.0, junggu.Value)
	assert.Equal(32.5, junggu.Auxiliary["pm10"])
	assert.Equal(14.0, junggu.Auxiliary["pm25"])
	assert.Equal(0.031, junggu.Auxiliary["o3"])
	assert.Equal(0.019, junggu.Auxiliary["no2"])
	assert.Equal(0.6, junggu.Auxiliary["co"])
	assert.Equal(63.0, junggu.Auxiliary["cai"])
	assert.Equal("좋음", junggu.Auxiliary["level"])
	assert.Equal(2, junggu.Auxiliary["stations"])

	jongno := result.Values[1]
	assert.Equal(40.0, jongno.Value)
	assert.Equal("나쁨", jongno.Auxiliary["level"])
	// pollutants the station doesn't report are absent, not zero
	_, reported := jongno.Auxiliary["o3"]
	assert.False(reported)
}

func TestAirQualitySkipsBlankReadings(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{
		ServiceKey: "RealtimeCityAir",
		Rows: []map[string]string{
			{"MSRSTN_NM": "용산구", "PM": "", "FPM": "20"},
			{"MSRSTN_NM": "용산구", "PM": "40", "FPM": "30"},
		},
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.Nil(err)
	// the blank PM reading doesn't drag the mean down
	assert.Equal(40.0, result.Values[0].Auxiliary["pm10"])
	assert.Equal(25.0, result.Values[0].Value)
}

func TestAirQualityNoData(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{Empty: true})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.Nil(err)
	assert.Equal(NoData, result.State)
	assert.Equal(0, len(result.Values))
}

func TestAirQualityExcludesBoroughsWithoutStations(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	// the dataset still emits rows for boroughs whose stations stopped
	// reporting, usually blank but sometimes with stale readings
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{
		ServiceKey: "RealtimeCityAir",
		Rows: []map[string]string{
			{"MSRSTN_NM": "중구", "PM": "30", "FPM": "12"},
			{"MSRSTN_NM": "은평구", "PM": "", "FPM": ""},
			{"MSRSTN_NM": "송파구", "PM": "28", "FPM": "11"},
			{"MSRSTN_NM": "구로구", "PM": "", "FPM": ""},
		},
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.Nil(err)
	assert.Equal(Resolved, result.State)
	assert.Equal(1, len(result.Values))
	assert.Equal("중구", result.Values[0].Borough)
}

func TestAirQualityGradesMissingReadingsAsModerate(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{
		ServiceKey: "RealtimeCityAir",
		Rows: []map[string]string{
			{"MSRSTN_NM": "강남구", "PM": "", "FPM": ""},
		},
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.Nil(err)
	assert.Equal(1, len(result.Values))

	gangnam := result.Values[0]
	// no usable PM2.5 reading: value 0 and an ungraded "보통", never "좋음"
	assert.Equal(0.0, gangnam.Value)
	assert.Equal("보통", gangnam.Auxiliary["level"])
	_, reported := gangnam.Auxiliary["pm25"]
	assert.False(reported)
}

func TestAirQualityRoundsPrimaryToInteger(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{
		ServiceKey: "RealtimeCityAir",
		Rows: []map[string]string{
			{"MSRSTN_NM": "중구", "FPM": "12"},
			{"MSRSTN_NM": "중구", "FPM": "15"},
		},
	})
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.Nil(err)

	junggu := result.Values[0]
	// the map value is a whole number; the auxiliary keeps one decimal
	assert.Equal(14.0, junggu.Value)
	assert.Equal(13.5, junggu.Auxiliary["pm25"])
}

func TestAirQualitySurfacesProtocolErrors(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	portal.Serve("RealtimeCityAir/ALL", smtest.Dataset{ErrorCode: "INFO-100"})
	aggregator := testAggregator(t, portal)

	_, err := aggregator.Resolve(context.Background(), airDescriptor, Options{})
	assert.NotNil(err)
}
