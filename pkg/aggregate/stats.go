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
	"math"
	"sort"
)

// Latency is the distribution summary of successful request durations.
type Latency struct {
	P90     float64
	P95     float64
	P99     float64
	Average float64
}

// summarize sorts values in place. values must not be empty.
func summarize(values []float64) Latency {
	sort.Float64s(values)
	return Latency{
		P90:     percentileCont(values, 0.90),
		P95:     percentileCont(values, 0.95),
		P99:     percentileCont(values, 0.99),
		Average: mean(values),
	}
}

// percentileCont interpolates linearly between the two order statistics
// around q*(n-1). sorted must be ascending and non-empty.
func percentileCont(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	low, high := sorted[int(lo)], sorted[int(hi)]
	v := low + (high-low)*(pos-lo)
	// keep rounding from stepping outside the bracketing samples
	return math.Min(math.Max(v, low), high)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
