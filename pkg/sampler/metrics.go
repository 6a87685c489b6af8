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

package sampler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	tickAccepted = "accepted"
	tickDropped  = "dropped"
)

// Metrics counts sampler outcomes.
type Metrics struct {
	Ticks           *prometheus.CounterVec
	AttemptFailures prometheus.Counter
}

// NewMetrics registers the sampler collectors with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_sampler_ticks_total",
			Help: "Sampler ticks by outcome.",
		}, []string{"result"}),
		AttemptFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_sampler_attempt_failures_total",
			Help: "Failed /stats attempts, including ones recovered by a retry.",
		}),
	}
}
