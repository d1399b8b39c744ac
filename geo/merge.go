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

package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// A Value is one area's aggregated indicator value, ready to be joined onto
// its boundary polygon. Borough is set at borough grain, District at
// district grain. Auxiliary fields ride along into the feature properties.
type Value struct {
	Borough   string
	District  string
	Value     float64
	Auxiliary map[string]any
}

// Merge joins indicator values onto the boundary polygons by exact name
// match, answering a new feature collection. The loaded boundaries are
// never mutated: every feature is copied, geometry included. A matched
// feature gets the value under the indicator id, a presence flag under
// "<id>_present", and the value's auxiliary fields. An unmatched area gets
// the value 0 and no presence flag, so consumers can tell a measured zero
// from missing data. Merging the same values twice yields the same result.
func (b *Boundaries) Merge(values []Value, indicatorId string) *geojson.FeatureCollection {
	byName := make(map[string]Value, len(values))
	for _, value := range values {
		byName[b.matchKey(value)] = value
	}

	merged := geojson.NewFeatureCollection()
	for _, feature := range b.features {
		copied := copyFeature(feature)
		value, matched := byName[b.featureName(feature)]
		if matched {
			copied.Properties[indicatorId] = value.Value
			copied.Properties[indicatorId+"_present"] = true
			for field, auxValue := range value.Auxiliary {
				copied.Properties[field] = auxValue
			}
		} else {
			copied.Properties[indicatorId] = 0.0
		}
		merged.Append(copied)
	}
	return merged
}

func (b *Boundaries) matchKey(value Value) string {
	if b.grain == Districts {
		return value.District
	}
	return value.Borough
}

func copyFeature(feature *geojson.Feature) *geojson.Feature {
	copied := geojson.NewFeature(orb.Clone(feature.Geometry))
	copied.ID = feature.ID
	copied.Properties = feature.Properties.Clone()
	return copied
}
