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

import "sort"

// SampleLogPrefix prefixes every sampler artifact in a results folder.
const SampleLogPrefix = "cpu-usage-"

// Run names one benchmark execution and the two artifacts it produced.
type Run struct {
	Name      string
	SampleLog string
	EventLog  string
}

// Report maps a run name to its buckets in ascending time order.
type Report map[string][]Bucket

// RunNames returns the report keys sorted.
func (r Report) RunNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
