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
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TimeLayout renders bucket boundaries the way the report consumers expect.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Bucket is one second of a run with data in every aggregated stream.
type Bucket struct {
	Time              int64
	Cores             []float64
	RequestsPerSecond float64
	FailuresPerSecond float64
	LatencyP90        float64
	LatencyP95        float64
	LatencyP99        float64
	LatencyAverage    float64
}

// Boundary returns the bucket start as a UTC time.
func (b Bucket) Boundary() time.Time {
	return time.Unix(b.Time, 0).UTC()
}

// MarshalJSON keeps the column order of the report stable.
func (b Bucket) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField("time")
	stream.WriteString(b.Boundary().Format(TimeLayout))
	for i, v := range b.Cores {
		stream.WriteMore()
		stream.WriteObjectField(CoreColumn(i))
		stream.WriteFloat64(v)
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"requestsPerSecond", b.RequestsPerSecond},
		{"failuresPerSecond", b.FailuresPerSecond},
		{"latencyP95", b.LatencyP95},
		{"latencyP90", b.LatencyP90},
		{"latencyP99", b.LatencyP99},
		{"latencyAverage", b.LatencyAverage},
	}
	for _, f := range fields {
		stream.WriteMore()
		stream.WriteObjectField(f.name)
		stream.WriteFloat64(f.value)
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

// UnmarshalJSON accepts any number of coreN keys as long as they run from
// core1 without gaps.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Bucket
	cores := make(map[int]float64)
	for key, value := range raw {
		if key == "time" {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("bucket time: %w", err)
			}
			t, err := time.Parse(TimeLayout, s)
			if err != nil {
				return fmt.Errorf("bucket time: %w", err)
			}
			out.Time = t.Unix()
			continue
		}

		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("bucket field %s: %w", key, err)
		}
		switch key {
		case "requestsPerSecond":
			out.RequestsPerSecond = v
		case "failuresPerSecond":
			out.FailuresPerSecond = v
		case "latencyP90":
			out.LatencyP90 = v
		case "latencyP95":
			out.LatencyP95 = v
		case "latencyP99":
			out.LatencyP99 = v
		case "latencyAverage":
			out.LatencyAverage = v
		default:
			if !IsCoreColumn(key) {
				return fmt.Errorf("unknown bucket field %q", key)
			}
			idx, err := strconv.Atoi(key[len("core"):])
			if err != nil || idx < 1 || idx > len(raw) {
				return fmt.Errorf("unknown bucket field %q", key)
			}
			cores[idx] = v
		}
	}

	if len(cores) > 0 {
		out.Cores = make([]float64, len(cores))
		for idx, v := range cores {
			if idx > len(cores) {
				return fmt.Errorf("bucket field %s skips a core", CoreColumn(idx-1))
			}
			out.Cores[idx-1] = v
		}
	}

	*b = out
	return nil
}
