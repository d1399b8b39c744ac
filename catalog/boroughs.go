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
	"fmt"
	"regexp"
)

// Seoul's 25 boroughs, keyed by the two/three-letter codes the licensing
// datasets use in their service names.
var boroughNames = map[string]string{
	"GN": "강남구",
	"GD": "강동구",
	"GB": "강북구",
	"GS": "강서구",
	"GA": "관악구",
	"GJ": "광진구",
	"GR": "구로구",
	"GC": "금천구",
	"NW": "노원구",
	"DB": "도봉구",
	"DD": "동대문구",
	"DJ": "동작구",
	"MP": "마포구",
	"SD": "서대문구",
	"SC": "서초구",
	"ST": "성동구",
	"SB": "성북구",
	"SP": "송파구",
	"YC": "양천구",
	"YD": "영등포구",
	"YS": "용산구",
	"EP": "은평구",
	"JR": "종로구",
	"JG": "중구",
	"JL": "중랑구",
}

var boroughCodes = func() map[string]string {
	codes := make(map[string]string, len(boroughNames))
	for code, name := range boroughNames {
		codes[name] = code
	}
	return codes
}()

// iteration order for deterministic fan-out and service generation
var boroughCodeOrder = []string{
	"GN", "GD", "GB", "GS", "GA", "GJ", "GR", "GC", "NW", "DB", "DD", "DJ",
	"MP", "SD", "SC", "ST", "SB", "SP", "YC", "YD", "YS", "EP", "JR", "JG",
	"JL",
}

// BoroughName answers the Korean name for a borough code ("GN" → "강남구").
func BoroughName(code string) (string, bool) {
	name, found := boroughNames[code]
	return name, found
}

// BoroughCode answers the code for a Korean borough name ("강남구" → "GN").
func BoroughCode(name string) (string, bool) {
	code, found := boroughCodes[name]
	return code, found
}

// BoroughNames answers all 25 borough names in a fixed order.
func BoroughNames() []string {
	names := make([]string, len(boroughCodeOrder))
	for i, code := range boroughCodeOrder {
		names[i] = boroughNames[code]
	}
	return names
}

var localDataServiceRegex = regexp.MustCompile(`^LOCALDATA_(\d+)_([A-Z]{2,3})$`)

// A LocalDataService identifies one borough's slice of a licensing dataset.
type LocalDataService struct {
	// industry code, e.g. "072217" for karaoke rooms
	IndustryCode string
	// borough code, e.g. "GR"
	BoroughCode string
	// Korean borough name
	BoroughName string
}

// Service answers the portal service name, e.g. "LOCALDATA_072217_GR".
func (s LocalDataService) Service() string {
	return fmt.Sprintf("LOCALDATA_%s_%s", s.IndustryCode, s.BoroughCode)
}

// ParseLocalDataService splits a licensing service name into its industry
// and borough parts, answering false for names in any other shape.
func ParseLocalDataService(service string) (LocalDataService, bool) {
	match := localDataServiceRegex.FindStringSubmatch(service)
	if match == nil {
		return LocalDataService{}, false
	}
	name, found := boroughNames[match[2]]
	if !found {
		return LocalDataService{}, false
	}
	return LocalDataService{
		IndustryCode: match[1],
		BoroughCode:  match[2],
		BoroughName:  name,
	}, true
}

// GenerateBoroughServices answers the 25 per-borough service names for one
// licensing industry code, in a fixed order.
func GenerateBoroughServices(industryCode string) []LocalDataService {
	services := make([]LocalDataService, len(boroughCodeOrder))
	for i, code := range boroughCodeOrder {
		services[i] = LocalDataService{
			IndustryCode: industryCode,
			BoroughCode:  code,
			BoroughName:  boroughNames[code],
		}
	}
	return services
}
