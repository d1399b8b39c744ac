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

// Package smtest provides test fixtures shared across the module's tests: a
// fake open data portal and builders for its two payload dialects.
package smtest

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// EnableDebugLogging turns on debug-level log output for a test run.
func EnableDebugLogging() {
	handler := slog.NewTextHandler(os.Stdout,
		&slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))
}

// MarkupRows renders rows in the portal's markup dialect, wrapped in the
// given service key, with the declared total count and a success result.
func MarkupRows(serviceKey string, totalCount int, rows []map[string]string) string {
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	builder.WriteString("\n<" + serviceKey + ">\n")
	fmt.Fprintf(&builder, "<list_total_count>%d</list_total_count>\n", totalCount)
	builder.WriteString("<RESULT><CODE>INFO-000</CODE><MESSAGE>정상 처리되었습니다</MESSAGE></RESULT>\n")
	for _, row := range rows {
		builder.WriteString("<row>\n")
		for field, value := range row {
			fmt.Fprintf(&builder, "<%s>%s</%s>\n", field, value, field)
		}
		builder.WriteString("</row>\n")
	}
	builder.WriteString("</" + serviceKey + ">")
	return builder.String()
}

// NoDataMarkup renders the portal's "no data" answer.
func NoDataMarkup() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<RESULT>
<CODE>INFO-200</CODE>
<MESSAGE>해당하는 데이터가 없습니다.</MESSAGE>
</RESULT>`
}

// ErrorMarkup renders a portal error answer with the given result code.
func ErrorMarkup(code, message string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<RESULT>
<CODE>%s</CODE>
<MESSAGE>%s</MESSAGE>
</RESULT>`, code, message)
}

// JsonRows renders rows in the portal's JSON dialect.
func JsonRows(serviceKey string, totalCount int, rows []map[string]any) string {
	payload := map[string]any{
		serviceKey: map[string]any{
			"list_total_count": totalCount,
			"RESULT": map[string]string{
				"CODE":    "INFO-000",
				"MESSAGE": "정상 처리되었습니다",
			},
			"row": rows,
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}
