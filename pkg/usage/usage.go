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

package usage

import (
	"fmt"

	"github.com/shirou/gopsutil/cpu"
)

// CoreTimes is the cumulative busy and total CPU time of one logical core.
type CoreTimes struct {
	Busy  float64
	Total float64
}

// Source reads cumulative per-core CPU times.
type Source interface {
	CoreTimes() ([]CoreTimes, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() ([]CoreTimes, error)

func (f SourceFunc) CoreTimes() ([]CoreTimes, error) {
	return f()
}

// HostSource reads per-core times of the local host through gopsutil.
type HostSource struct{}

func (HostSource) CoreTimes() ([]CoreTimes, error) {
	stats, err := cpu.Times(true)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu times: %w", err)
	}
	return FromTimesStat(stats), nil
}

// FromTimesStat folds gopsutil counters into busy/total pairs. Busy time is
// user+nice+system+irq; total adds idle.
func FromTimesStat(stats []cpu.TimesStat) []CoreTimes {
	out := make([]CoreTimes, len(stats))
	for i, t := range stats {
		busy := t.User + t.Nice + t.System + t.Irq
		out[i] = CoreTimes{Busy: busy, Total: busy + t.Idle}
	}
	return out
}

// Delta converts two cumulative snapshots into per-core utilization
// percentages. An empty prev yields an empty result. The result is as wide as
// the shorter of the two snapshots. A core whose total did not advance
// reports 0.
func Delta(prev, curr []CoreTimes) []float64 {
	n := min(len(prev), len(curr))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		busy := curr[i].Busy - prev[i].Busy
		total := curr[i].Total - prev[i].Total
		if total <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, 100*busy/total)
	}
	return out
}
