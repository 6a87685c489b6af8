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

import (
	"fmt"
	"math"
	"strings"
)

// DefaultCoreCount matches the width of the reference sample log header.
const DefaultCoreCount = 4

// TimestampColumn names the receipt time column of the sample log.
const TimestampColumn = "timestamp"

// ResourceSample is one accepted poll of the stats endpoint.
type ResourceSample struct {
	// Timestamp is the receipt wall-clock time in epoch milliseconds.
	Timestamp int64
	// CoreUsage holds one utilization percentage per logical core.
	CoreUsage []float64
}

// Second returns the one-second bucket the sample belongs to.
func (s ResourceSample) Second() int64 {
	return floorDiv(s.Timestamp, 1000)
}

// ValidCoreUsage reports whether v can be written as a core reading.
func ValidCoreUsage(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}

// CoreColumn returns the 1-based header name of a core column.
func CoreColumn(index int) string {
	return fmt.Sprintf("core%d", index+1)
}

// SampleLogHeader returns the header row for a log with the given width.
func SampleLogHeader(cores int) []string {
	header := make([]string, 0, cores+1)
	for i := 0; i < cores; i++ {
		header = append(header, CoreColumn(i))
	}
	return append(header, TimestampColumn)
}

// IsCoreColumn matches core1..coreN header names.
func IsCoreColumn(name string) bool {
	return strings.HasPrefix(name, "core") && len(name) > len("core")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
