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
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// A Topic is a browsable group of related indicators at one spatial grain.
type Topic struct {
	Id            string       `json:"topic_id"`
	Name          string       `json:"topic_name"`
	Category      string       `json:"category"`
	Grain         SpatialGrain `json:"spatial_grain"`
	SubIndicators []Descriptor `json:"sub_indicators"`
	Description   string       `json:"description"`
}

// GroupByTopic folds catalog descriptors into topics by the prefix of their
// display name before the first underscore ("유통전문판매업_영업중" and
// "유통전문판매업_폐업" share the "유통전문판매업" topic). Names with no
// underscore become single-indicator topics. The grouping key includes the
// category, so same-named topics in different categories stay apart.
func GroupByTopic(descriptors []Descriptor) []Topic {
	groups := make(map[string][]Descriptor)
	var order []string
	for _, descriptor := range descriptors {
		topicName, _ := descriptor.Topic()
		key := descriptor.Category + ":" + topicName
		if _, found := groups[key]; !found {
			order = append(order, key)
		}
		groups[key] = append(groups[key], descriptor)
	}

	topics := make([]Topic, 0, len(order))
	for _, key := range order {
		members := groups[key]
		category, topicName, _ := strings.Cut(key, ":")
		topics = append(topics, Topic{
			Id: strings.ToLower(category) + "_" +
				strings.ReplaceAll(topicName, " ", "_"),
			Name:          topicName,
			Category:      category,
			Grain:         members[0].Grain,
			SubIndicators: members,
			Description:   fmt.Sprintf("%s 관련 %d개 지표", topicName, len(members)),
		})
	}
	return topics
}

// A Stage records which hop of the entity classification chain produced an
// answer, so misclassifications can be traced to the rule responsible.
type Stage int

const (
	// matched a synonym table entry
	StageSynonym Stage = iota
	// matched the "서울시 X구 <entity> <task>" name pattern
	StagePattern
	// fell through to token splitting
	StageToken
	// nothing usable in the name
	StageFallback
)

func (s Stage) String() string {
	switch s {
	case StageSynonym:
		return "synonym"
	case StagePattern:
		return "pattern"
	case StageToken:
		return "token"
	default:
		return "fallback"
	}
}

// entity groups and their synonyms, longest synonym match wins
var entitySynonyms = []struct {
	entity   string
	synonyms []string
}{
	{"음식점", []string{"음식점", "일반음식점", "휴게음식점", "단란주점", "유흥주점", "식당", "레스토랑", "카페", "주점"}},
	{"병원", []string{"병원", "의료기관", "의원", "치과", "한의원", "보건소", "병원급", "요양병원", "정신병원", "종합병원"}},
	{"약국", []string{"약국", "한약국"}},
	{"편의점", []string{"편의점"}},
	{"슈퍼마켓", []string{"슈퍼마켓", "슈퍼", "마트"}},
	{"유통", []string{"유통전문판매업", "유통", "판매업"}},
	{"복지시설", []string{"사회복지시설", "복지시설", "어린이집", "보육시설", "노인복지시설", "장애인복지시설", "아동복지시설", "정신요양시설"}},
	{"주차장", []string{"주차장", "공영주차장", "민영주차장"}},
	{"공원", []string{"공원", "어린이공원", "근린공원"}},
	{"학교", []string{"학교", "초등학교", "중학교", "고등학교", "유치원", "어린이집"}},
	{"도서관", []string{"도서관", "작은도서관"}},
	{"체육시설", []string{"체육시설", "체육관", "운동장", "수영장", "테니스장"}},
	{"화장실", []string{"공중화장실", "화장실"}},
	{"공지사항", []string{"공지사항", "새소식", "알림"}},
	{"채용", []string{"채용", "일자리", "구인"}},
	{"문화행사", []string{"문화행사", "행사", "축제", "이벤트"}},
	{"민원", []string{"민원", "불편신고", "신고"}},
	{"예약", []string{"공공서비스예약", "시설대관", "시설예약", "대관"}},
	{"검사", []string{"수거검사", "식품검사", "위생검사", "검사"}},
	{"처분", []string{"행정처분", "처분", "과태료"}},
	{"업소", []string{"공중위생업소", "위생업소", "업소"}},
	{"도로", []string{"도로", "가로", "골목"}},
	{"시설", []string{"시설물", "공공시설"}},
	{"대기오염", []string{"대기오염", "대기환경", "미세먼지", "초미세먼지", "오존", "이산화질소"}},
}

var (
	entityPatternRegex = regexp.MustCompile(
		`서울(시)?\s+\S+구\s+([^\s]+)\s+(인허가|현황|목록|정보|예약|처분|검사|공공서비스예약)`)
	seoulPrefixRegex  = regexp.MustCompile(`서울(시)?`)
	boroughTokenRegex = regexp.MustCompile(`\S+구`)
	boroughInNameRegex = regexp.MustCompile(`(\S+구)`)
)

// name tokens that describe the dataset rather than its subject
var boilerplateTokens = map[string]bool{
	"정보": true, "목록": true, "현황": true, "인허가": true, "조회": true,
	"상세": true, "통계": true, "분석": true, "데이터": true,
}

// normalizes an exact token through the synonym table
func normalizeEntity(token string) (string, bool) {
	for _, group := range entitySynonyms {
		for _, synonym := range group.synonyms {
			if synonym == token {
				return group.entity, true
			}
		}
	}
	return "", false
}

// ClassifyEntity extracts the entity type a dataset name is about
// ("서울특별시 마포구 일반음식점 인허가 정보" → "음식점"). The returned
// Stage records which classification rule decided.
func ClassifyEntity(name string) (string, Stage) {
	// longest substring match against the synonym table
	var bestEntity string
	var bestLength int
	for _, group := range entitySynonyms {
		for _, synonym := range group.synonyms {
			if len(synonym) > bestLength && strings.Contains(name, synonym) {
				bestEntity = group.entity
				bestLength = len(synonym)
			}
		}
	}
	if bestEntity != "" {
		return bestEntity, StageSynonym
	}

	if match := entityPatternRegex.FindStringSubmatch(name); match != nil {
		if normalized, found := normalizeEntity(match[2]); found {
			return normalized, StagePattern
		}
		return match[2], StagePattern
	}

	// strip the city and borough, take the first substantive token
	cleaned := seoulPrefixRegex.ReplaceAllString(name, "")
	cleaned = boroughTokenRegex.ReplaceAllString(cleaned, "")
	for _, token := range strings.Fields(cleaned) {
		if len([]rune(token)) < 2 || boilerplateTokens[token] {
			continue
		}
		if normalized, found := normalizeEntity(token); found {
			return normalized, StageToken
		}
		return token, StageToken
	}

	return "일반", StageFallback
}

// ClassifyTask extracts the administrative task a dataset name describes.
// List/status/detail variants all collapse into "정보".
func ClassifyTask(name string) string {
	switch {
	case strings.Contains(name, "인허가"):
		return "인허가"
	case strings.Contains(name, "예약"):
		return "예약"
	case strings.Contains(name, "검사"):
		return "검사"
	case strings.Contains(name, "처분"):
		return "처분"
	}
	for _, word := range []string{"목록", "현황", "정보", "조회", "상세", "통계", "분석"} {
		if strings.Contains(name, word) {
			return "정보"
		}
	}
	return "기타"
}

// category aliases folded into their canonical names
var categoryAliases = map[string]string{
	"문화/관광": "문화관광",
	"문화":    "문화관광",
	"관광":    "문화관광",
	"산업/경제": "산업경제",
	"산업":    "산업경제",
	"경제":    "산업경제",
}

// NormalizeCategory folds category aliases ("문화/관광", "문화", "관광" all
// mean "문화관광") into one canonical name.
func NormalizeCategory(category string) string {
	if canonical, found := categoryAliases[category]; found {
		return canonical
	}
	return category
}

// A Service is one raw portal dataset as listed in the portal's own catalog,
// before any grouping.
type Service struct {
	Id          string
	Name        string
	Category    string
	MapCategory string
}

// minimum same-entity endpoint count at which unknown services are presumed
// to be one dataset published per borough
const presumedBoroughFanout = 20

// GroupServicesByTopic folds raw portal services into topics, two levels
// deep: category/task at the top, entity type below. The known map carries
// the spatial grain of services whose shape has been verified by hand;
// unverified services are presumed per-borough when at least 20 of them
// share an entity type (each borough publishes its own copy), and dropped
// otherwise. Grains never merge: one topic is emitted per
// (category, task, grain).
func GroupServicesByTopic(services []Service, known map[string]SpatialGrain) []Topic {
	type entityKey struct {
		category, task, entity string
	}
	groups := make(map[entityKey][]Service)
	var order []entityKey
	for _, service := range services {
		category := service.MapCategory
		if category == "" {
			category = service.Category
		}
		key := entityKey{
			category: NormalizeCategory(category),
			task:     ClassifyTask(service.Name),
		}
		key.entity, _ = ClassifyEntity(service.Name)
		if _, found := groups[key]; !found {
			order = append(order, key)
		}
		groups[key] = append(groups[key], service)
	}

	type topicKey struct {
		category, task string
		grain          SpatialGrain
	}
	buckets := make(map[topicKey][]Descriptor)
	var bucketOrder []topicKey
	add := func(key topicKey, descriptor Descriptor) {
		if _, found := buckets[key]; !found {
			bucketOrder = append(bucketOrder, key)
		}
		buckets[key] = append(buckets[key], descriptor)
	}

	for _, key := range order {
		var unknown []Service
		for _, service := range groups[key] {
			grain, verified := known[service.Id]
			if !verified {
				unknown = append(unknown, service)
				continue
			}
			add(topicKey{key.category, key.task, grain},
				serviceDescriptor(key.category, key.task, key.entity, grain, service))
		}

		if len(unknown) >= presumedBoroughFanout {
			add(topicKey{key.category, key.task, GrainBorough},
				presumedBoroughDescriptor(key.category, key.task, key.entity, unknown))
		} else {
			for _, service := range unknown {
				slog.Debug("Dropped service with unknown spatial shape",
					"id", service.Id, "name", service.Name)
			}
		}
	}

	topics := make([]Topic, 0, len(bucketOrder))
	for _, key := range bucketOrder {
		topics = append(topics, Topic{
			Id: fmt.Sprintf("%s_%s_%s", strings.ToLower(key.category),
				strings.ReplaceAll(key.task, " ", "_"), key.grain),
			Name:          key.task,
			Category:      key.category,
			Grain:         key.grain,
			SubIndicators: buckets[key],
			Description:   topicDescription(key.category, key.task, buckets[key]),
		})
	}
	return topics
}

// builds the descriptor for a hand-verified service at its known grain
func serviceDescriptor(category, task, entity string, grain SpatialGrain,
	service Service) Descriptor {
	var pattern string
	var binding EndpointBinding
	switch grain {
	case GrainCity:
		pattern = fmt.Sprintf("CITY:%s - %s", task, entity)
		binding = EndpointBinding{City: "seoul", Id: service.Id}
	case GrainDistrict:
		pattern = fmt.Sprintf("MULTI_DONG:%s - %s", task, entity)
		binding = EndpointBinding{District: "all", Id: service.Id}
	default:
		pattern = fmt.Sprintf("MULTI_GU:%s - %s", task, entity)
		binding = EndpointBinding{Borough: "all", Id: service.Id}
	}
	method, _ := json.Marshal([]EndpointBinding{binding})
	return Descriptor{
		Id:                fmt.Sprintf("%s_%s_%s_%s", category, task, entity, service.Id),
		Name:              entity,
		Category:          category,
		Grain:             grain,
		MetricType:        "count",
		SourcePattern:     pattern,
		AggregationMethod: string(method),
		Description:       service.Name,
	}
}

// builds the single borough-grain descriptor for >= 20 same-entity services
// presumed to be one dataset published per borough; each service's borough
// is read off its name
func presumedBoroughDescriptor(category, task, entity string,
	services []Service) Descriptor {
	bindings := make([]EndpointBinding, 0, len(services))
	for _, service := range services {
		var borough string
		if match := boroughInNameRegex.FindStringSubmatch(service.Name); match != nil {
			borough = match[1]
		}
		bindings = append(bindings, EndpointBinding{Borough: borough, Id: service.Id})
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Borough < bindings[j].Borough
	})
	method, _ := json.Marshal(bindings)
	return Descriptor{
		Id:                fmt.Sprintf("%s_%s_%s", category, task, entity),
		Name:              entity,
		Category:          category,
		Grain:             GrainBorough,
		MetricType:        "count",
		SourcePattern:     fmt.Sprintf("MULTI_GU:%s - %s", task, entity),
		AggregationMethod: string(method),
		Description:       fmt.Sprintf("%s (%d개 구 통합)", entity, len(services)),
	}
}

func topicDescription(category, task string, members []Descriptor) string {
	names := make([]string, 0, 3)
	for _, member := range members {
		if len(names) == 3 {
			return fmt.Sprintf("%s - %s | %s...", category, task,
				strings.Join(names, ", "))
		}
		names = append(names, member.Description)
	}
	return fmt.Sprintf("%s - %s | %s", category, task, strings.Join(names, ", "))
}

// MergeTopics concatenates topic lists from the indicator catalog and the
// raw service catalog.
func MergeTopics(lists ...[]Topic) []Topic {
	var merged []Topic
	for _, list := range lists {
		merged = append(merged, list...)
	}
	return merged
}
