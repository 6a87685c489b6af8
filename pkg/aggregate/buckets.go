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
	"fmt"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

type cpuSum struct {
	sums []float64
	n    int
}

// cpuBuckets averages per-core usage over the samples of each second.
type cpuBuckets struct {
	width   int
	seconds map[int64]*cpuSum
}

func newCPUBuckets() *cpuBuckets {
	return &cpuBuckets{seconds: make(map[int64]*cpuSum)}
}

func (b *cpuBuckets) add(s model.ResourceSample) error {
	if b.width == 0 {
		b.width = len(s.CoreUsage)
	}
	if len(s.CoreUsage) != b.width {
		return fmt.Errorf("sample at %d has %d cores, expected %d", s.Timestamp, len(s.CoreUsage), b.width)
	}

	sec := s.Second()
	acc, ok := b.seconds[sec]
	if !ok {
		acc = &cpuSum{sums: make([]float64, b.width)}
		b.seconds[sec] = acc
	}
	for i, v := range s.CoreUsage {
		acc.sums[i] += v
	}
	acc.n++
	return nil
}

func (b *cpuBuckets) average(sec int64) ([]float64, bool) {
	acc, ok := b.seconds[sec]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(acc.sums))
	for i, sum := range acc.sums {
		out[i] = sum / float64(acc.n)
	}
	return out, true
}

// eventBuckets keeps the three per-second sub-aggregates of the event log.
// A second is present in a sub-aggregate only if at least one qualifying
// event landed in it.
type eventBuckets struct {
	requests  map[int64]float64
	failures  map[int64]float64
	durations map[int64][]float64
}

func newEventBuckets() *eventBuckets {
	return &eventBuckets{
		requests:  make(map[int64]float64),
		failures:  make(map[int64]float64),
		durations: make(map[int64][]float64),
	}
}

func (b *eventBuckets) add(e model.MetricEvent) {
	sec := e.Second()
	switch e.Name {
	case model.MetricRequestCount:
		b.requests[sec] += e.Value
	case model.MetricRequestFailure:
		b.failures[sec] += e.Value
	case model.MetricRequestDuration:
		if e.Successful() {
			b.durations[sec] = append(b.durations[sec], e.Value)
		}
	case model.MetricOther:
	}
}
