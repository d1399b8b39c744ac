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

// Package indicators resolves catalog descriptors into per-area values. Each
// source-pattern family has its own aggregation strategy; the Aggregator
// dispatches on the pattern prefix and every strategy reports the same
// Result shape, so callers and the geo-join never care which one ran.
package indicators

import (
	"math"

	"github.com/google/uuid"

	"github.com/haeseungsung/seoul-map/seoulapi"
)

// A State tells a consumer whether a result is usable.
type State int

const (
	// every unit resolved
	Resolved State = iota
	// some units failed; the values that resolved are usable
	PartialFailure
	// nothing usable was produced
	Failed
	// the upstream dataset reported no data for the request
	NoData
)

func (s State) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case PartialFailure:
		return "partial_failure"
	case NoData:
		return "no_data"
	default:
		return "failed"
	}
}

// A Value is one area's aggregated value. Borough is set at borough and
// city grain, District at district grain.
type Value struct {
	Borough   string         `json:"borough,omitempty"`
	District  string         `json:"district,omitempty"`
	Value     float64        `json:"value"`
	Auxiliary map[string]any `json:"auxiliary,omitempty"`
}

// A UnitFailure records one failed unit of a multi-unit aggregation, so a
// partially resolved indicator can say exactly what is missing.
type UnitFailure struct {
	// the area the unit covers
	Unit string `json:"unit"`
	// the dataset endpoint that failed
	Endpoint string `json:"endpoint"`
	Message  string `json:"message"`
}

// A Result is the outcome of resolving one indicator.
type Result struct {
	IndicatorId string        `json:"indicator_id"`
	Values      []Value       `json:"values"`
	State       State         `json:"-"`
	Failures    []UnitFailure `json:"failures,omitempty"`
	// the dataset's as-of date, when it declares one
	AsOfDate string `json:"as_of_date,omitempty"`
	// tags the resolution run, so stale in-flight results can be discarded
	Generation uuid.UUID `json:"generation"`
	// time-windowed sampling: set when a window's reported time bucket
	// disagrees with the requested hour
	BucketMismatch string `json:"bucket_mismatch,omitempty"`
	// spatial aggregation point accounting
	MatchedPoints   int `json:"matched_points,omitempty"`
	UnmatchedPoints int `json:"unmatched_points,omitempty"`
	// raw rows, populated only in full mode
	Records []seoulapi.RawRecord `json:"records,omitempty"`
}

// Usable reports whether the result's values may be shown.
func (r Result) Usable() bool {
	return r.State == Resolved || r.State == PartialFailure
}

// Options tune a single resolution run.
type Options struct {
	// hour of day for time-windowed sampling; nil samples a fixed spread
	// of hours and averages
	Hour *int
	// return raw rows instead of per-area reductions (licensing datasets)
	Full bool
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func roundInt(x float64) float64 {
	return math.Round(x)
}
