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
	"sync"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/fieldmap"
)

// Per-borough fan-out strategy: every borough has its own endpoint, and a
// one-row probe per endpoint yields the borough's scalar (the declared
// total count). All requests run concurrently; each settles on its own, so
// one borough failing never takes down the other 24.
func (a *Aggregator) boroughFanout(ctx context.Context, descriptor catalog.Descriptor) (Result, error) {
	bindings, err := descriptor.Endpoints()
	if err != nil {
		return Result{}, err
	}
	if len(bindings) == 0 {
		return Result{}, InvalidBindingsError{Id: descriptor.Id}
	}

	type outcome struct {
		value   Value
		failure *UnitFailure
	}
	outcomes := make([]outcome, len(bindings))

	var group sync.WaitGroup
	for i, binding := range bindings {
		group.Add(1)
		go func(i int, borough, endpoint string) {
			defer group.Done()
			page, err := a.Client.FetchPage(ctx, endpoint, 1, 1)
			if err != nil {
				outcomes[i] = outcome{
					value: Value{Borough: borough, Value: 0},
					failure: &UnitFailure{Unit: borough, Endpoint: endpoint,
						Message: err.Error()},
				}
				return
			}

			scalar := float64(page.TotalCount)
			if page.TotalCount == 0 && len(page.Records) > 0 {
				scalar = float64(len(page.Records))
				// some datasets bury the total in the row itself
				if nested, ok := fieldmap.Number(page.Records[0],
					"list_total_count"); ok {
					scalar = nested
				}
			}
			outcomes[i] = outcome{value: Value{Borough: borough, Value: scalar}}
		}(i, binding.Borough, binding.Id)
	}
	group.Wait()

	result := Result{Values: make([]Value, 0, len(bindings))}
	for _, o := range outcomes {
		result.Values = append(result.Values, o.value)
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
		}
	}
	switch {
	case len(result.Failures) == 0:
		result.State = Resolved
	case len(result.Failures) == len(bindings):
		result.State = Failed
	default:
		result.State = PartialFailure
	}
	return result, nil
}
