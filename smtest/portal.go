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

package smtest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/haeseungsung/seoul-map/seoulapi"
)

// A Dataset is one endpoint served by the fake portal.
type Dataset struct {
	// root element (markup) or wrapping key (JSON)
	ServiceKey string
	// every row of the dataset; requests are served slices of it
	Rows []map[string]string
	// declared total; when 0, len(Rows) is declared
	TotalCount int
	// serve the JSON dialect instead of markup
	Json bool
	// answer with this result code instead of data
	ErrorCode string
	// answer the "no data" code
	Empty bool
}

// A RequestLog records one page request the portal served.
type RequestLog struct {
	Endpoint   string
	Start, End int
}

// A Portal is a fake Seoul open data portal backed by httptest. Register
// datasets by endpoint name, point a client at it, and inspect the requests
// it served.
type Portal struct {
	server   *httptest.Server
	mutex    sync.Mutex
	datasets map[string]Dataset
	requests []RequestLog
}

// NewPortal starts a fake portal. Callers own Close.
func NewPortal() *Portal {
	portal := &Portal{datasets: make(map[string]Dataset)}
	portal.server = httptest.NewServer(http.HandlerFunc(portal.serve))
	return portal
}

// Close shuts the portal down.
func (p *Portal) Close() {
	p.server.Close()
}

// Serve registers (or replaces) a dataset under an endpoint name. Endpoint
// names may contain slashes ("RealtimeCityAir/ALL").
func (p *Portal) Serve(endpoint string, dataset Dataset) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.datasets[endpoint] = dataset
}

// URL answers the portal's base URL, for configurations that build their
// own client.
func (p *Portal) URL() string {
	return p.server.URL
}

// Client answers a portal client wired to this fake.
func (p *Portal) Client() *seoulapi.Client {
	return seoulapi.NewClientWithBase(p.server.URL, "TESTKEY",
		5*time.Second, 5*time.Second)
}

// Requests answers every page request served so far, in order.
func (p *Portal) Requests() []RequestLog {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]RequestLog(nil), p.requests...)
}

// RequestCount answers how many page requests hit one endpoint.
func (p *Portal) RequestCount(endpoint string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	count := 0
	for _, request := range p.requests {
		if request.Endpoint == endpoint {
			count++
		}
	}
	return count
}

// handles {key}/{format}/{endpoint...}/{start}/{end}/ requests
func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) < 5 {
		http.Error(w, "bad request path", http.StatusBadRequest)
		return
	}
	endpoint := strings.Join(segments[2:len(segments)-2], "/")
	start, startErr := strconv.Atoi(segments[len(segments)-2])
	end, endErr := strconv.Atoi(segments[len(segments)-1])
	if startErr != nil || endErr != nil || start < 1 || end < start {
		http.Error(w, "bad row range", http.StatusBadRequest)
		return
	}

	p.mutex.Lock()
	dataset, found := p.datasets[endpoint]
	p.requests = append(p.requests, RequestLog{Endpoint: endpoint, Start: start, End: end})
	p.mutex.Unlock()

	if !found {
		http.Error(w, "no such dataset", http.StatusNotFound)
		return
	}

	switch {
	case dataset.ErrorCode != "":
		w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
		w.Write([]byte(ErrorMarkup(dataset.ErrorCode, "오류가 발생했습니다")))
	case dataset.Empty:
		w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
		w.Write([]byte(NoDataMarkup()))
	case dataset.Json:
		w.Header().Set("Content-Type", "application/json")
		rows := make([]map[string]any, 0)
		for _, row := range sliceRows(dataset.Rows, start, end) {
			converted := make(map[string]any, len(row))
			for field, value := range row {
				converted[field] = value
			}
			rows = append(rows, converted)
		}
		w.Write([]byte(JsonRows(dataset.ServiceKey, dataset.total(), rows)))
	default:
		w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
		w.Write([]byte(MarkupRows(dataset.ServiceKey, dataset.total(),
			sliceRows(dataset.Rows, start, end))))
	}
}

func (d Dataset) total() int {
	if d.TotalCount > 0 {
		return d.TotalCount
	}
	return len(d.Rows)
}

// answers the 1-based inclusive row range, clamped to the dataset
func sliceRows(rows []map[string]string, start, end int) []map[string]string {
	if start > len(rows) {
		return nil
	}
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start-1 : end]
}
