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

package aggregate

import (
	"sort"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// join keeps only the seconds present in all four sub-aggregates and
// returns them in ascending order. The result is never nil.
func join(cpu *cpuBuckets, events *eventBuckets) []model.Bucket {
	out := make([]model.Bucket, 0)
	for sec := range cpu.seconds {
		requests, ok := events.requests[sec]
		if !ok {
			continue
		}
		failures, ok := events.failures[sec]
		if !ok {
			continue
		}
		durations, ok := events.durations[sec]
		if !ok {
			continue
		}
		cores, _ := cpu.average(sec)

		latency := summarize(durations)
		out = append(out, model.Bucket{
			Time:              sec,
			Cores:             cores,
			RequestsPerSecond: requests,
			FailuresPerSecond: failures,
			LatencyP90:        latency.P90,
			LatencyP95:        latency.P95,
			LatencyP99:        latency.P99,
			LatencyAverage:    latency.Average,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
