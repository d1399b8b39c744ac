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

// Package fieldmap discovers which fields of a schemaless dataset carry the
// quantities the aggregation strategies need. The portal publishes hundreds
// of datasets with no shared schema, but field names for the same logical
// quantity cluster around a small set of conventions; each Role holds its
// candidate names in priority order and Resolve picks the first one a record
// actually populates.
package fieldmap

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/haeseungsung/seoul-map/seoulapi"
)

// A Role names a logical quantity a dataset field can carry.
type Role int

const (
	// the borough (구) a row belongs to
	Borough Role = iota
	// the administrative district (행정동) a row belongs to
	District
	// the numeric measure a row contributes
	Measure
	// the date or time bucket a row falls in
	TimeBucket
	// WGS84 latitude of a point row
	Latitude
	// WGS84 longitude of a point row
	Longitude
)

// candidate field names per role, in priority order
var candidates = map[Role][]string{
	Borough: {"GU", "GU_NM", "GU_NAME", "SIGNGU_NM", "SGG_NM", "MSRSTN_NM",
		"GUNAME", "GU_CODE"},
	District: {"ADSTRD_NM", "DONG_NM", "ADMDONG_NM", "EMD_NM",
		"ADSTRD_CODE_SE"},
	Measure: {"TOT_LVPOP_CO", "TOT_POPLTN_CNT", "PM", "FPM", "VALUE",
		"COUNT"},
	TimeBucket: {"TMZON_PD_SE", "TMZON_SE", "STDR_DE_ID", "STDR_DE",
		"BASE_DT"},
	Latitude:  {"LAT", "LATITUDE", "Y_WGS84", "WGS84LAT", "STATIONLATITUDE"},
	Longitude: {"LNG", "LON", "LONGITUDE", "X_WGS84", "WGS84LON", "STATIONLONGITUDE"},
}

// Seoul's coordinates fall within this box; values outside it indicate a
// misdetected field (projected coordinates, plain counts)
const (
	minSeoulLat = 37.0
	maxSeoulLat = 38.0
	minSeoulLng = 126.0
	maxSeoulLng = 128.0
)

// Resolve returns the name of the first candidate field for the given role
// that any of the given records populates with a usable value. Candidates
// match field names case-insensitively (the JSON-dialect datasets use
// camelCase), and the record's own spelling is returned. It returns ""
// when the dataset carries no recognizable field for the role.
func Resolve(role Role, records []seoulapi.RawRecord) string {
	for _, candidate := range candidates[role] {
		for _, record := range records {
			field, value, found := lookup(record, candidate)
			if !found || value == "" {
				continue
			}
			if usable(role, value) {
				return field
			}
		}
	}
	return ""
}

// finds a field by name, exact spelling first and case-insensitively after
func lookup(record seoulapi.RawRecord, candidate string) (string, string, bool) {
	if value, found := record[candidate]; found {
		return candidate, value, true
	}
	for field, value := range record {
		if strings.EqualFold(field, candidate) {
			return field, value, true
		}
	}
	return "", "", false
}

// reports whether a populated value is plausible for the role
func usable(role Role, value string) bool {
	switch role {
	case Measure:
		_, err := cast.ToFloat64E(value)
		return err == nil
	case Latitude:
		lat, err := cast.ToFloat64E(value)
		return err == nil && lat >= minSeoulLat && lat <= maxSeoulLat
	case Longitude:
		lng, err := cast.ToFloat64E(value)
		return err == nil && lng >= minSeoulLng && lng <= maxSeoulLng
	default:
		return true
	}
}

// A FieldMap records which field of a dataset resolved for each role. A
// field that did not resolve is "".
type FieldMap struct {
	Borough    string
	District   string
	Measure    string
	TimeBucket string
	Latitude   string
	Longitude  string
}

// HasPoint reports whether both coordinate roles resolved.
func (m FieldMap) HasPoint() bool {
	return m.Latitude != "" && m.Longitude != ""
}

// Discover resolves every role against a sample of records. It is pure and
// deterministic: the same sample always yields the same FieldMap.
func Discover(records []seoulapi.RawRecord) FieldMap {
	return FieldMap{
		Borough:    Resolve(Borough, records),
		District:   Resolve(District, records),
		Measure:    Resolve(Measure, records),
		TimeBucket: Resolve(TimeBucket, records),
		Latitude:   Resolve(Latitude, records),
		Longitude:  Resolve(Longitude, records),
	}
}

// Number reads the named field of a record as a float64, answering 0 and
// false when the field is absent or non-numeric.
func Number(record seoulapi.RawRecord, field string) (float64, bool) {
	value, found := record[field]
	if !found || value == "" {
		return 0, false
	}
	number, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, false
	}
	return number, true
}

// Point reads the given latitude/longitude fields of a record, answering
// false unless both parse and fall inside Seoul's coordinate box.
func Point(record seoulapi.RawRecord, latField, lngField string) (lat, lng float64, ok bool) {
	lat, latOk := Number(record, latField)
	lng, lngOk := Number(record, lngField)
	if !latOk || !lngOk {
		return 0, 0, false
	}
	if lat < minSeoulLat || lat > maxSeoulLat || lng < minSeoulLng || lng > maxSeoulLng {
		return 0, 0, false
	}
	return lat, lng, true
}
