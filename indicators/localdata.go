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
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/haeseungsung/seoul-map/catalog"
	"github.com/haeseungsung/seoul-map/fieldmap"
	"github.com/haeseungsung/seoul-map/prefetch"
	"github.com/haeseungsung/seoul-map/seoulapi"
)

// licensing dataset status column and its establishment states
const (
	statusField = "TRDSTATEGBN"
	statusOpen  = "01"
	statusShut  = "03"
)

var (
	industryCodeRegex = regexp.MustCompile(`^LOCALDATA_(\d+)`)
	addressGuRegex    = regexp.MustCompile(`서울특별시\s+(\S+구)`)
)

// per-borough establishment counts accumulated from raw licensing rows
type boroughCounts struct {
	total, active, closed int
}

// Licensing (LOCALDATA) strategy: each industry's dataset is published as 25
// per-borough services, each paged in bulk to completion. Reductions follow
// the descriptor's metric type: count, count_active, count_closed or
// active_ratio. Aggregate runs consult the cache first and refill it after
// fetching; full runs always fetch, since the cache keeps counts, not rows.
func (a *Aggregator) localData(ctx context.Context, descriptor catalog.Descriptor,
	options Options) (Result, error) {
	match := industryCodeRegex.FindStringSubmatch(descriptor.SourcePattern)
	if match == nil {
		return Result{}, UnsupportedPatternError{Pattern: descriptor.SourcePattern}
	}
	industryCode := match[1]

	if !options.Full && a.Cache != nil {
		aggregates, fresh, err := a.Cache.Get(ctx, industryCode)
		if err != nil {
			slog.Warn("Licensing cache read failed; fetching instead",
				"industry", industryCode, "error", err)
		} else if fresh {
			return localDataResult(descriptor, countsFromAggregates(aggregates), nil), nil
		}
	}

	filter := parseFilter(descriptor.FilterCondition)

	type outcome struct {
		counts  boroughCounts
		records []seoulapi.RawRecord
		failure *UnitFailure
	}
	services := catalog.GenerateBoroughServices(industryCode)
	outcomes := make([]outcome, len(services))

	var group sync.WaitGroup
	for i, service := range services {
		group.Add(1)
		go func(i int, service catalog.LocalDataService) {
			defer group.Done()
			records, err := a.fetchBoroughRows(ctx, service)
			if err != nil {
				outcomes[i] = outcome{failure: &UnitFailure{
					Unit:     service.BoroughName,
					Endpoint: service.Service(),
					Message:  err.Error(),
				}}
				return
			}

			var counts boroughCounts
			var kept []seoulapi.RawRecord
			for _, record := range records {
				if filter != nil && !filter.matches(record) {
					continue
				}
				counts.total++
				switch record[statusField] {
				case statusOpen:
					counts.active++
				case statusShut:
					counts.closed++
				}
				if options.Full {
					kept = append(kept, record)
				}
			}
			outcomes[i] = outcome{counts: counts, records: kept}
		}(i, service)
	}
	group.Wait()

	counts := make(map[string]boroughCounts, len(services))
	var failures []UnitFailure
	var records []seoulapi.RawRecord
	var aggregates []prefetch.Aggregate
	for i, service := range services {
		o := outcomes[i]
		if o.failure != nil {
			failures = append(failures, *o.failure)
			counts[service.BoroughName] = boroughCounts{}
			continue
		}
		counts[service.BoroughName] = o.counts
		records = append(records, o.records...)
		aggregates = append(aggregates, prefetch.Aggregate{
			IndustryCode: industryCode,
			Borough:      service.BoroughName,
			Total:        o.counts.total,
			Active:       o.counts.active,
			Closed:       o.counts.closed,
		})
	}

	// only complete, unfiltered runs are cacheable
	if a.Cache != nil && len(failures) == 0 && filter == nil {
		if err := a.Cache.Put(ctx, aggregates); err != nil {
			slog.Warn("Licensing cache write failed", "industry", industryCode,
				"error", err)
		}
	}

	result := localDataResult(descriptor, counts, failures)
	if options.Full {
		result.Records = records
	}
	return result, nil
}

// pages one borough's licensing service to completion: a one-row probe for
// the declared total, then bulk pages; every row is tagged with the borough
func (a *Aggregator) fetchBoroughRows(ctx context.Context,
	service catalog.LocalDataService) ([]seoulapi.RawRecord, error) {
	endpoint := service.Service()
	probe, err := a.Client.FetchPage(ctx, endpoint, 1, 1)
	if err != nil {
		return nil, err
	}
	total := probe.TotalCount
	if probe.NoData() || total == 0 {
		return nil, nil
	}
	if a.MaxRecords > 0 && total > a.MaxRecords {
		total = a.MaxRecords
	}

	pageSize := a.pageSize()
	var records []seoulapi.RawRecord
	for start := 1; start <= total; start += pageSize {
		end := start + pageSize - 1
		if end > total {
			end = total
		}
		page, err := a.Client.FetchBulkPage(ctx, endpoint, start, end)
		if err != nil {
			return nil, err
		}
		for _, record := range page.Records {
			tagBorough(record, service.BoroughName)
			records = append(records, record)
		}
	}
	return records, nil
}

// ensures a licensing row carries its borough in the GU field, scraping the
// road or site address when the dataset doesn't say
func tagBorough(record seoulapi.RawRecord, fallback string) {
	if record["GU"] != "" {
		return
	}
	for _, field := range []string{"RDNWHLADDR", "SITEWHLADDR"} {
		if match := addressGuRegex.FindStringSubmatch(record[field]); match != nil {
			record["GU"] = match[1]
			return
		}
	}
	record["GU"] = fallback
}

func countsFromAggregates(aggregates []prefetch.Aggregate) map[string]boroughCounts {
	counts := make(map[string]boroughCounts, len(aggregates))
	for _, aggregate := range aggregates {
		counts[aggregate.Borough] = boroughCounts{
			total:  aggregate.Total,
			active: aggregate.Active,
			closed: aggregate.Closed,
		}
	}
	return counts
}

func localDataResult(descriptor catalog.Descriptor,
	counts map[string]boroughCounts, failures []UnitFailure) Result {
	values := make([]Value, 0, len(counts))
	for _, borough := range catalog.BoroughNames() {
		c, found := counts[borough]
		if !found {
			continue
		}
		var value float64
		switch descriptor.MetricType {
		case "count_active":
			value = float64(c.active)
		case "count_closed":
			value = float64(c.closed)
		case "active_ratio":
			if c.total > 0 {
				value = round1(float64(c.active) / float64(c.total) * 100)
			}
		default:
			value = float64(c.total)
		}
		values = append(values, Value{
			Borough: borough,
			Value:   value,
			Auxiliary: map[string]any{
				"total":  c.total,
				"active": c.active,
				"closed": c.closed,
			},
		})
	}

	result := Result{Values: values, Failures: failures}
	switch {
	case len(failures) == 0:
		result.State = Resolved
	case len(failures) == len(counts):
		result.State = Failed
	default:
		result.State = PartialFailure
	}
	return result
}

// a parsed row filter: FIELD=V, FIELD>V or FIELD>=V
type rowFilter struct {
	field, operator, operand string
}

func parseFilter(condition string) *rowFilter {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return nil
	}
	for _, operator := range []string{">=", "=", ">"} {
		if field, operand, found := strings.Cut(condition, operator); found {
			return &rowFilter{
				field:    strings.TrimSpace(field),
				operator: operator,
				operand:  strings.TrimSpace(operand),
			}
		}
	}
	return nil
}

func (f *rowFilter) matches(record seoulapi.RawRecord) bool {
	value := record[f.field]
	switch f.operator {
	case "=":
		return value == f.operand
	case ">", ">=":
		number, ok := fieldmap.Number(record, f.field)
		if !ok {
			return false
		}
		threshold, err := cast.ToFloat64E(f.operand)
		if err != nil {
			return false
		}
		if f.operator == ">" {
			return number > threshold
		}
		return number >= threshold
	}
	return false
}
