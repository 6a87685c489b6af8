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

package collector

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alibaba/opensandbox/telemetry/pkg/aggregate"
	"github.com/alibaba/opensandbox/telemetry/pkg/log"
	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// RunError identifies the run that aborted a collection pass.
type RunError struct {
	Run string
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %q: %v", e.Run, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Collector aggregates every run of a results folder into one report.
type Collector struct {
	folder    string
	workers   int
	aggregate func(model.Run) ([]model.Bucket, error)
	logger    *zap.SugaredLogger
}

// New returns a collector over folder. workers <= 1 aggregates runs one at a
// time in discovery order.
func New(folder string, workers int) *Collector {
	return &Collector{
		folder:    folder,
		workers:   workers,
		aggregate: aggregate.Aggregate,
		logger:    log.Named("collector"),
	}
}

// Collect discovers all runs first, then aggregates each. The first failing
// run aborts the pass and no report is returned.
func (c *Collector) Collect(ctx context.Context) (model.Report, error) {
	runs, err := Discover(c.folder)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("discovered %d runs in %s", len(runs), c.folder)

	if c.workers <= 1 {
		return c.collectSequential(ctx, runs)
	}
	return c.collectParallel(ctx, runs)
}

func (c *Collector) collectSequential(ctx context.Context, runs []model.Run) (model.Report, error) {
	report := make(model.Report, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buckets, err := c.aggregateRun(run)
		if err != nil {
			return nil, err
		}
		report[run.Name] = buckets
	}
	return report, nil
}

func (c *Collector) collectParallel(ctx context.Context, runs []model.Run) (model.Report, error) {
	var mu sync.Mutex
	report := make(model.Report, len(runs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, run := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			buckets, err := c.aggregateRun(run)
			if err != nil {
				return err
			}
			mu.Lock()
			report[run.Name] = buckets
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Collector) aggregateRun(run model.Run) ([]model.Bucket, error) {
	c.logger.Infof("processing %s", run.Name)
	buckets, err := c.aggregate(run)
	if err != nil {
		return nil, &RunError{Run: run.Name, Err: err}
	}
	c.logger.Debugf("run %s: %d buckets", run.Name, len(buckets))
	return buckets, nil
}
