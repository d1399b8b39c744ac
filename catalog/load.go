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

package catalog

import (
	"log/slog"
	"path/filepath"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/frictionlessdata/tableschema-go/csv"
)

// the name of the tabular resource holding the indicator descriptors
const indicatorResource = "indicators"

// one CSV row of the indicator resource
type catalogRow struct {
	Id                string `tableheader:"indicator_id"`
	Name              string `tableheader:"indicator_name"`
	Family            string `tableheader:"family"`
	Grain             string `tableheader:"spatial_grain"`
	MetricType        string `tableheader:"metric_type"`
	SourcePattern     string `tableheader:"source_pattern"`
	ValueField        string `tableheader:"value_field"`
	FilterCondition   string `tableheader:"filter_condition"`
	AggregationMethod string `tableheader:"aggregation_method"`
	Description       string `tableheader:"description"`
}

func (r catalogRow) descriptor() Descriptor {
	return Descriptor{
		Id:                r.Id,
		Name:              r.Name,
		Category:          r.Family,
		Grain:             SpatialGrain(r.Grain),
		MetricType:        r.MetricType,
		SourcePattern:     r.SourcePattern,
		ValueField:        r.ValueField,
		FilterCondition:   r.FilterCondition,
		AggregationMethod: r.AggregationMethod,
		Description:       r.Description,
	}
}

// A Catalog holds the loaded indicator descriptors, indexed by id. It is
// read-only after loading, so it may be shared across goroutines.
type Catalog struct {
	descriptors []Descriptor
	byId        map[string]int
}

// Load reads the indicator catalog from the Frictionless data package in the
// given directory (its datapackage.json plus the CSV resources it names).
func Load(dir string) (*Catalog, error) {
	path := filepath.Join(dir, "datapackage.json")
	pkg, err := datapackage.Load(path, validator.InMemoryLoader())
	if err != nil {
		return nil, LoadError{Path: path, Message: err.Error()}
	}

	resource := pkg.GetResource(indicatorResource)
	if resource == nil {
		return nil, LoadError{
			Path:    path,
			Message: "no '" + indicatorResource + "' resource in the package",
		}
	}

	var rows []catalogRow
	if err := resource.Cast(&rows, csv.LoadHeaders()); err != nil {
		return nil, LoadError{Path: path, Message: err.Error()}
	}
	descriptors := make([]Descriptor, len(rows))
	for i, row := range rows {
		descriptors[i] = row.descriptor()
	}

	catalog := New(descriptors)
	slog.Info("Loaded indicator catalog", "descriptors", len(descriptors),
		"path", path)
	return catalog, nil
}

// New builds a catalog from descriptors already in hand (used by tests and
// by callers that synthesize descriptors).
func New(descriptors []Descriptor) *Catalog {
	catalog := &Catalog{
		descriptors: descriptors,
		byId:        make(map[string]int, len(descriptors)),
	}
	for i, descriptor := range descriptors {
		catalog.byId[descriptor.Id] = i
	}
	return catalog
}

// Descriptors answers every descriptor in catalog order.
func (c *Catalog) Descriptors() []Descriptor {
	return c.descriptors
}

// Descriptor answers the descriptor with the given id.
func (c *Catalog) Descriptor(id string) (Descriptor, error) {
	i, found := c.byId[id]
	if !found {
		return Descriptor{}, NotFoundError{Id: id}
	}
	return c.descriptors[i], nil
}

// Topics answers the catalog's descriptors grouped into topics.
func (c *Catalog) Topics() []Topic {
	return GroupByTopic(c.descriptors)
}
