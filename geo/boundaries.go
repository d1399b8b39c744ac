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

// Package geo joins aggregated indicator values onto Seoul's administrative
// boundary polygons. Boundary collections are loaded once, explicitly, and
// are read-only afterwards; merging copies features rather than mutating
// the loaded collection, so one collection serves concurrent requests.
package geo

import (
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// A Grain names the administrative level a boundary collection covers.
type Grain int

const (
	// borough (구) boundaries, named by the gu_name property
	Boroughs Grain = iota
	// administrative district (행정동) boundaries, named by dong_name
	Districts
)

// feature property carrying the area name at each grain
func (g Grain) nameProperty() string {
	if g == Boroughs {
		return "gu_name"
	}
	return "dong_name"
}

// Boundaries holds one loaded boundary collection at a single grain.
type Boundaries struct {
	grain    Grain
	features []*geojson.Feature
}

// Load reads a boundary collection from a GeoJSON file.
func Load(path string, grain Grain) (*Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadError{Path: path, Message: err.Error()}
	}
	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, LoadError{Path: path, Message: err.Error()}
	}
	if len(collection.Features) == 0 {
		return nil, LoadError{Path: path, Message: "no boundary features"}
	}
	return &Boundaries{grain: grain, features: collection.Features}, nil
}

// Count answers the number of areas in the collection.
func (b *Boundaries) Count() int {
	return len(b.features)
}

// Names answers every area name in feature order.
func (b *Boundaries) Names() []string {
	names := make([]string, 0, len(b.features))
	for _, feature := range b.features {
		names = append(names, b.featureName(feature))
	}
	return names
}

// answers the area name of a feature, falling back to the last token of the
// full administrative name (adm_nm: "서울특별시 마포구 서교동") when the
// grain's name property is absent
func (b *Boundaries) featureName(feature *geojson.Feature) string {
	if name, found := feature.Properties[b.grain.nameProperty()].(string); found && name != "" {
		return name
	}
	if admName, found := feature.Properties["adm_nm"].(string); found {
		tokens := strings.Fields(admName)
		if b.grain == Boroughs && len(tokens) >= 2 {
			return tokens[1]
		}
		if len(tokens) > 0 {
			return tokens[len(tokens)-1]
		}
	}
	return ""
}

// A Located identifies the administrative area containing a point.
type Located struct {
	// district name ("서교동"), empty at borough grain
	District string
	// borough name ("마포구")
	Borough string
	// full administrative name when the collection carries one
	AdmName string
}

// Locate answers which area contains the given WGS84 point, testing each
// polygon in feature order.
func (b *Boundaries) Locate(lng, lat float64) (Located, bool) {
	point := orb.Point{lng, lat}
	for _, feature := range b.features {
		if !contains(feature.Geometry, point) {
			continue
		}
		located := Located{}
		located.AdmName, _ = feature.Properties["adm_nm"].(string)
		if b.grain == Districts {
			located.District = b.featureName(feature)
			located.Borough, _ = feature.Properties["gu_name"].(string)
		} else {
			located.Borough = b.featureName(feature)
		}
		if located.Borough == "" && located.AdmName != "" {
			if tokens := strings.Fields(located.AdmName); len(tokens) >= 2 {
				located.Borough = tokens[1]
			}
		}
		return located, true
	}
	return Located{}, false
}

func contains(geometry orb.Geometry, point orb.Point) bool {
	switch g := geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, point)
	default:
		return false
	}
}

// DistrictCodeNames answers the mapping from 8-digit district codes to
// district names, taken from each feature's adm_cd2 property (a 10-digit
// code; the first 8 digits identify the district) and the last token of its
// adm_nm.
func (b *Boundaries) DistrictCodeNames() map[string]string {
	names := make(map[string]string)
	for _, feature := range b.features {
		code, _ := feature.Properties["adm_cd2"].(string)
		if len(code) < 8 {
			continue
		}
		admName, _ := feature.Properties["adm_nm"].(string)
		tokens := strings.Fields(admName)
		if len(tokens) == 0 {
			continue
		}
		names[code[:8]] = tokens[len(tokens)-1]
	}
	return names
}
