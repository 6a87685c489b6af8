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

import "math"

// MetricEvent is one row of the load generator event log.
type MetricEvent struct {
	Name  MetricName
	Value float64
	// Timestamp is in epoch seconds and may be fractional.
	Timestamp float64
	Status    int
	HasStatus bool
}

// Second returns the one-second bucket the event belongs to.
func (e MetricEvent) Second() int64 {
	return int64(math.Floor(e.Timestamp))
}

// Successful reports whether a duration event counts toward latency.
func (e MetricEvent) Successful() bool {
	return e.HasStatus && e.Status < 400
}
