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

package flag

import "time"

var (
	// ServerLogLevel controls the log verbosity of every subcommand.
	ServerLogLevel int

	// TargetHost is the base URL of the server whose /stats endpoint is sampled.
	TargetHost string

	// RunName names the benchmark run the sampler is recording.
	RunName string

	// ResultsDir holds sample logs, event logs and the default report.
	ResultsDir string

	// SampleInterval is the sampler tick period.
	SampleInterval time.Duration

	// RequestTimeout bounds each /stats attempt.
	RequestTimeout time.Duration

	// RetryAttempts caps the attempts per tick.
	RetryAttempts int

	// CoreCount is the width of every sample row.
	CoreCount int

	// MetricsAddr serves sampler counters when set.
	MetricsAddr string

	// ReportPath is where the collector writes the report.
	ReportPath string

	// CollectorWorkers is the number of runs aggregated concurrently.
	CollectorWorkers int

	// ServerPort controls the stats agent listener port.
	ServerPort int

	// ServerAccessToken guards the stats agent when set.
	ServerAccessToken string
)
