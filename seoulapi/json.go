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

package seoulapi

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// the fixed inner shape of the portal's JSON dialect, wrapped in a single
// top-level key that names the service
type jsonEnvelope struct {
	TotalCount int `json:"list_total_count"`
	Result     struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
	Rows []map[string]any `json:"row"`
}

// extracts a Page from a JSON response body
func parseJsonPage(endpoint string, body []byte) (Page, error) {
	// the service key isn't known up front, so unwrap the top level first
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return Page{}, MalformedResponseError{
			Endpoint: endpoint,
			Message:  err.Error(),
		}
	}

	// some error responses put RESULT at the top level with no service key
	if raw, found := wrapper["RESULT"]; found {
		var result struct {
			Code    string `json:"CODE"`
			Message string `json:"MESSAGE"`
		}
		if err := json.Unmarshal(raw, &result); err == nil && result.Code != "" {
			return Page{
				ResultCode:    result.Code,
				resultMessage: result.Message,
			}, nil
		}
	}

	var serviceKey string
	var envelope jsonEnvelope
	for key, raw := range wrapper {
		if err := json.Unmarshal(raw, &envelope); err == nil {
			serviceKey = key
			break
		}
	}
	if serviceKey == "" {
		return Page{}, MalformedResponseError{
			Endpoint: endpoint,
			Message:  "no service key wrapping the payload",
		}
	}

	page := Page{
		ServiceKey:    serviceKey,
		TotalCount:    envelope.TotalCount,
		ResultCode:    envelope.Result.Code,
		resultMessage: envelope.Result.Message,
	}
	if page.ResultCode == "" {
		page.ResultCode = ResultOk
	}

	for _, row := range envelope.Rows {
		record := RawRecord{}
		for field, value := range row {
			if value == nil {
				record[field] = ""
				continue
			}
			record[field] = cast.ToString(value)
		}
		if len(record) > 0 {
			page.Records = append(page.Records, record)
		}
	}

	for _, record := range page.Records {
		for _, tag := range asOfDateTags {
			if date, found := record[tag]; found && date != "" {
				page.AsOfDate = date
				break
			}
		}
		if page.AsOfDate != "" {
			break
		}
	}

	return page, nil
}
