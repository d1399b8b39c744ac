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

// Package catalog holds the indicator catalog: descriptors for every map
// indicator, loaded from a Frictionless data package, plus the grouping
// machinery that folds hundreds of raw portal datasets into browsable topics.
package catalog

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// A SpatialGrain names the spatial resolution an indicator resolves at.
type SpatialGrain string

const (
	// one value per borough (구)
	GrainBorough SpatialGrain = "gu"
	// one value per administrative district (행정동)
	GrainDistrict SpatialGrain = "dong"
	// a single citywide value
	GrainCity SpatialGrain = "city"
)

// A Descriptor describes one indicator: where its rows come from and how
// they aggregate into per-area values.
type Descriptor struct {
	// stable indicator identifier
	Id string `json:"indicator_id"`
	// display name; the prefix before the first underscore is the topic
	Name string `json:"indicator_name"`
	// top-level category (문화관광, 산업경제, ...)
	Category string `json:"family"`
	// spatial resolution the indicator resolves at
	Grain SpatialGrain `json:"spatial_grain"`
	// how values are produced: count, count_active, count_closed,
	// active_ratio, average, or sum
	MetricType string `json:"metric_type"`
	// strategy-prefixed source: "ALL_GU:...", "MULTI_GU:...",
	// "LOCALDATA_072217_GN", "CITY:...", "MULTI_DONG:...", "SPATIAL_DONG:..."
	SourcePattern string `json:"source_pattern"`
	// field the value comes from, "" to count rows
	ValueField string `json:"value_field"`
	// optional row filter: "FIELD=V", "FIELD>V" or "FIELD>=V"
	FilterCondition string `json:"filter_condition"`
	// JSON array binding areas to endpoint ids (see Endpoints)
	AggregationMethod string `json:"aggregation_method"`
	Description       string `json:"description"`
}

// An EndpointBinding ties one area to the dataset endpoint that serves it.
// Exactly one of Borough, District, City is set.
type EndpointBinding struct {
	Borough  string `json:"gu,omitempty"`
	District string `json:"dong,omitempty"`
	City     string `json:"city,omitempty"`
	Id       string `json:"id"`
}

// Endpoints decodes the descriptor's area-to-endpoint bindings. A descriptor
// with no aggregation method has no bindings, which is not an error: its
// source pattern alone names the endpoint.
func (d Descriptor) Endpoints() ([]EndpointBinding, error) {
	if d.AggregationMethod == "" {
		return nil, nil
	}
	var bindings []EndpointBinding
	if err := json.Unmarshal([]byte(d.AggregationMethod), &bindings); err != nil {
		return nil, InvalidDescriptorError{
			Id:      d.Id,
			Message: fmt.Sprintf("bad aggregation method: %s", err.Error()),
		}
	}
	return bindings, nil
}

// Topic answers the descriptor's topic and sub-indicator label, split on the
// first underscore of its display name. A name with no underscore is its own
// topic with an empty label.
func (d Descriptor) Topic() (topic, label string) {
	if before, after, found := strings.Cut(d.Name, "_"); found && before != "" {
		return before, after
	}
	return d.Name, ""
}
