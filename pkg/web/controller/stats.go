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

package controller

import (
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/alibaba/opensandbox/telemetry/pkg/usage"
	"github.com/alibaba/opensandbox/telemetry/pkg/web/model"
)

// usageTracker remembers the previous CPU snapshot between /stats calls.
type usageTracker struct {
	mu     sync.Mutex
	source usage.Source
	prev   []usage.CoreTimes
}

var tracker = &usageTracker{source: usage.HostSource{}}

// InitStatsSource replaces the CPU time source and resets the baseline, so
// the next /stats call returns an empty array.
func InitStatsSource(source usage.Source) {
	tracker = &usageTracker{source: source}
}

// next returns per-core utilization since the previous call, rounded to
// whole percents.
func (t *usageTracker) next() ([]int, error) {
	curr, err := t.source.CoreTimes()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	pct := usage.Delta(t.prev, curr)
	t.prev = curr
	t.mu.Unlock()

	out := make([]int, len(pct))
	for i, v := range pct {
		out[i] = int(math.Round(v))
	}
	return out, nil
}

// StatsController serves per-core CPU utilization to the sampler.
type StatsController struct {
	*basicController
}

func NewStatsController(ctx *gin.Context) *StatsController {
	return &StatsController{basicController: newBasicController(ctx)}
}

// GetStats returns utilization since the previous call as a JSON array, one
// entry per logical core. The first call after startup returns [].
func (c *StatsController) GetStats() {
	values, err := tracker.next()
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error reading cpu times. %v", err),
		)
		return
	}

	c.RespondSuccess(values)
}
