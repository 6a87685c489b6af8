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

// Package aggregate turns the sample log and the event log of one run into
// per-second buckets joined on wall-clock time.
package aggregate

import (
	"fmt"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// Aggregate reads both artifacts of run and joins them. Any missing or
// malformed artifact fails the whole run.
func Aggregate(run model.Run) ([]model.Bucket, error) {
	cpu := newCPUBuckets()
	var widthErr error
	err := ScanSamples(run.SampleLog, func(s model.ResourceSample) {
		if widthErr == nil {
			widthErr = cpu.add(s)
		}
	})
	if err != nil {
		return nil, err
	}
	if widthErr != nil {
		return nil, fmt.Errorf("sample log %s: %w", run.SampleLog, widthErr)
	}

	events := newEventBuckets()
	if err := ScanEvents(run.EventLog, events.add); err != nil {
		return nil, err
	}

	return join(cpu, events), nil
}

// Compute is Aggregate over in-memory streams.
func Compute(samples []model.ResourceSample, events []model.MetricEvent) ([]model.Bucket, error) {
	cpu := newCPUBuckets()
	for _, s := range samples {
		if err := cpu.add(s); err != nil {
			return nil, err
		}
	}

	eb := newEventBuckets()
	for _, e := range events {
		eb.add(e)
	}
	return join(cpu, eb), nil
}
