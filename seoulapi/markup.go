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

// The portal's markup dialect is scraped with regular expressions rather than
// decoded with an XML parser: the portal emits unescaped ampersands and
// mismatched entities in free-text fields often enough that a strict decoder
// rejects real responses. Scraping tolerates them.

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	totalCountRegex = regexp.MustCompile(`<list_total_count>(\d+)</list_total_count>`)
	resultCodeRegex = regexp.MustCompile(`<CODE>([^<]+)</CODE>`)
	resultMsgRegex  = regexp.MustCompile(`<MESSAGE>([^<]+)</MESSAGE>`)
	rowRegex        = regexp.MustCompile(`(?s)<row>(.*?)</row>`)
	// open and close tag names are captured separately and compared in code
	fieldRegex = regexp.MustCompile(`<(\w+)\s*/>|<(\w+)>([^<]*)</(\w+)>`)
	// the root element names the service; \w skips the <?xml declaration
	serviceKeyRegex = regexp.MustCompile(`<(\w+)>`)
)

// candidate tags that carry a dataset's as-of date, in preference order
var asOfDateTags = []string{"STDR_DE", "BASE_DT", "DATA_STD_DT", "UPD_DT", "UPD_DATE"}

// extracts a Page from a markup response body
func parseMarkupPage(endpoint string, body []byte) (Page, error) {
	text := string(body)
	page := Page{ResultCode: ResultOk}

	if match := serviceKeyRegex.FindStringSubmatch(text); match != nil {
		page.ServiceKey = match[1]
	} else {
		return Page{}, MalformedResponseError{
			Endpoint: endpoint,
			Message:  "no recognizable markup elements",
		}
	}

	if match := resultCodeRegex.FindStringSubmatch(text); match != nil {
		page.ResultCode = match[1]
	}
	if match := resultMsgRegex.FindStringSubmatch(text); match != nil {
		page.resultMessage = match[1]
	}
	if match := totalCountRegex.FindStringSubmatch(text); match != nil {
		page.TotalCount, _ = strconv.Atoi(match[1])
	}

	for _, tag := range asOfDateTags {
		pattern := regexp.MustCompile(`<` + tag + `>([^<]+)</` + tag + `>`)
		if match := pattern.FindStringSubmatch(text); match != nil {
			page.AsOfDate = strings.TrimSpace(match[1])
			break
		}
	}

	for _, rowMatch := range rowRegex.FindAllStringSubmatch(text, -1) {
		record := RawRecord{}
		for _, fieldMatch := range fieldRegex.FindAllStringSubmatch(rowMatch[1], -1) {
			if fieldMatch[1] != "" { // self-closing (empty) field
				record[fieldMatch[1]] = ""
				continue
			}
			if fieldMatch[2] != fieldMatch[4] { // mismatched tags, skip
				continue
			}
			record[fieldMatch[2]] = unescapeMarkup(strings.TrimSpace(fieldMatch[3]))
		}
		if len(record) > 0 {
			page.Records = append(page.Records, record)
		}
	}

	return page, nil
}

var markupUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func unescapeMarkup(value string) string {
	if !strings.Contains(value, "&") {
		return value
	}
	return markupUnescaper.Replace(value)
}
