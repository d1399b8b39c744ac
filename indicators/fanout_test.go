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
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/smtest"
)

// builds a fan-out descriptor binding every borough to its own endpoint
func fanoutDescriptor(t *testing.T) catalog.Descriptor {
	t.Helper()
	var bindings []catalog.EndpointBinding
	for i, borough := range catalog.BoroughNames() {
		bindings = append(bindings, catalog.EndpointBinding{
			Borough: borough,
			Id:      fmt.Sprintf("GuService%d", i),
		})
	}
	method, err := json.Marshal(bindings)
	assert.Nil(t, err)
	return catalog.Descriptor{
		Id:                "laundry_permits",
		SourcePattern:     "MULTI_GU:인허가 - 세탁업",
		AggregationMethod: string(method),
	}
}

func TestFanoutResolvesEveryBorough(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	for i := range catalog.BoroughNames() {
		portal.Serve(fmt.Sprintf("GuService%d", i), smtest.Dataset{
			ServiceKey: "LaundryPermits",
			TotalCount: 100 + i,
			Rows:       []map[string]string{{"BPLCNM": "세탁소"}},
		})
	}
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), fanoutDescriptor(t), Options{})
	assert.Nil(err)
	assert.Equal(Resolved, result.State)
	assert.Equal(25, len(result.Values))
	assert.Equal(0, len(result.Failures))

	assert.Equal("강남구", result.Values[0].Borough)
	assert.Equal(100.0, result.Values[0].Value)
	assert.Equal(124.0, result.Values[24].Value)
}

func TestFanoutAccountsForFailures(t *testing.T) {
	assert := assert.New(t)
	portal := testPortal(t)
	// every eighth borough gets no dataset at all, the portal answers 404
	for i := range catalog.BoroughNames() {
		if i%8 == 0 {
			continue
		}
		portal.Serve(fmt.Sprintf("GuService%d", i), smtest.Dataset{
			ServiceKey: "LaundryPermits",
			TotalCount: 50,
			Rows:       []map[string]string{{"BPLCNM": "세탁소"}},
		})
	}
	aggregator := testAggregator(t, portal)

	result, err := aggregator.Resolve(context.Background(), fanoutDescriptor(t), Options{})
	assert.Nil(err)
	assert.Equal(PartialFailure, result.State)
	assert.True(result.Usable())

	// 25 values regardless, 25-K of them real and K failed with zero
	assert.Equal(25, len(result.Values))
	assert.Equal(4, len(result.Failures))
	assert.Equal(0.0, result.Values[0].Value)
	assert.Equal("강남구", result.Failures[0].Unit)
	assert.Equal("GuService0", result.Failures[0].Endpoint)
	assert.NotEmpty(result.Failures[0].Message)
	assert.Equal(50.0, result.Values[1].Value)
}

func TestFanoutFailsWhenEveryBoroughFails(t *testing.T) {
	assert := assert.New(t)
	aggregator := testAggregator(t, testPortal(t))

	result, err := aggregator.Resolve(context.Background(), fanoutDescriptor(t), Options{})
	assert.Nil(err)
	assert.Equal(Failed, result.State)
	assert.False(result.Usable())
	assert.Equal(25, len(result.Failures))
}

func TestFanoutWithoutBindingsIsAnError(t *testing.T) {
	assert := assert.New(t)
	aggregator := testAggregator(t, testPortal(t))

	_, err := aggregator.Resolve(context.Background(), catalog.Descriptor{
		Id:            "unbound",
		SourcePattern: "MULTI_GU:기타 - 일반",
	}, Options{})
	assert.NotNil(err)
	_, invalid := err.(InvalidBindingsError)
	assert.True(invalid)
}
