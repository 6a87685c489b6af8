// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "fmt"

// MetricName is the closed vocabulary of load generator metrics the
// aggregator understands. Everything else maps to MetricOther.
type MetricName int

const (
	MetricOther MetricName = iota
	MetricRequestCount
	MetricRequestFailure
	MetricRequestDuration
)

// k6 metric names as written by `k6 run --out csv=...`.
const (
	K6RequestCount    = "http_reqs"
	K6RequestFailure  = "http_req_failed"
	K6RequestDuration = "http_req_duration"
)

var metricNames = map[string]MetricName{
	K6RequestCount:     MetricRequestCount,
	K6RequestFailure:   MetricRequestFailure,
	K6RequestDuration:  MetricRequestDuration,
	"request-count":    MetricRequestCount,
	"request-failure":  MetricRequestFailure,
	"request-duration": MetricRequestDuration,
}

// ParseMetricName never fails; unknown names are reported as MetricOther.
func ParseMetricName(name string) MetricName {
	if m, ok := metricNames[name]; ok {
		return m
	}
	return MetricOther
}

func (m MetricName) String() string {
	switch m {
	case MetricRequestCount:
		return "request-count"
	case MetricRequestFailure:
		return "request-failure"
	case MetricRequestDuration:
		return "request-duration"
	case MetricOther:
		return "other"
	default:
		return fmt.Sprintf("MetricName(%d)", int(m))
	}
}
