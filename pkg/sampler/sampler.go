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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/alibaba/opensandbox/telemetry/pkg/log"
	"github.com/alibaba/opensandbox/telemetry/pkg/model"
	"github.com/alibaba/opensandbox/telemetry/pkg/util/safego"
)

// SessionHeader carries the sampler session id on every /stats request.
const SessionHeader = "X-Sampler-Session"

const maxBodyBytes = 64 << 10

// Options configures a Sampler.
type Options struct {
	// Host is the base URL of the target, without the /stats suffix.
	Host           string
	LogPath        string
	Interval       time.Duration
	RequestTimeout time.Duration
	Attempts       int
	Cores          int
}

// Sampler polls a target's /stats endpoint and records one row per accepted
// tick.
type Sampler struct {
	opts     Options
	endpoint string
	session  string
	client   *http.Client
	writer   *LogWriter
	metrics  *Metrics
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// New truncates the run's sample log and prepares the poller.
func New(opts Options, reg prometheus.Registerer) (*Sampler, error) {
	if opts.Attempts < 1 {
		return nil, fmt.Errorf("attempts must be positive, got %d", opts.Attempts)
	}
	if opts.Cores < 1 {
		return nil, fmt.Errorf("cores must be positive, got %d", opts.Cores)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", opts.Interval)
	}

	writer, err := CreateLog(opts.LogPath, opts.Cores)
	if err != nil {
		return nil, err
	}

	session := uuid.NewString()
	return &Sampler{
		opts:     opts,
		endpoint: strings.TrimRight(opts.Host, "/") + "/stats",
		session:  session,
		client:   &http.Client{Timeout: opts.RequestTimeout},
		writer:   writer,
		metrics:  NewMetrics(reg),
		logger:   log.Named("sampler").With("session", session),
		now:      time.Now,
	}, nil
}

// Session returns the id sent with every request.
func (s *Sampler) Session() string {
	return s.session
}

// Run ticks until ctx is cancelled. Ticks run in their own goroutines and may
// overlap; Run returns once the in-flight ones finished.
func (s *Sampler) Run(ctx context.Context) {
	s.logger.Infof("sampling %s every %s into %s", s.endpoint, s.opts.Interval, s.writer.Path())

	var inflight sync.WaitGroup
	wait.Until(func() {
		inflight.Add(1)
		safego.Go(func() {
			defer inflight.Done()
			s.Tick(ctx)
		})
	}, s.opts.Interval, ctx.Done())

	inflight.Wait()
}

// Tick performs one poll and reports whether a row was written.
func (s *Sampler) Tick(ctx context.Context) bool {
	var usage []float64
	backoff := wait.Backoff{Steps: s.opts.Attempts}

	err := retry.OnError(backoff, func(err error) bool {
		return ctx.Err() == nil && !errors.Is(err, ErrIncompleteSample)
	}, func() error {
		var err error
		usage, err = s.fetch(ctx)
		if err != nil {
			s.metrics.AttemptFailures.Inc()
		}
		return err
	})
	if err != nil {
		s.drop(err)
		return false
	}

	sample := model.ResourceSample{Timestamp: s.now().UnixMilli(), CoreUsage: usage}
	if err := s.writer.Append(sample); err != nil {
		s.drop(err)
		return false
	}
	s.metrics.Ticks.WithLabelValues(tickAccepted).Inc()
	return true
}

func (s *Sampler) drop(err error) {
	s.metrics.Ticks.WithLabelValues(tickDropped).Inc()
	s.logger.Debugf("tick dropped: %v", err)
}

// fetch issues a single /stats attempt.
func (s *Sampler) fetch(ctx context.Context) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats request: %w", err)
	}
	req.Header.Set(SessionHeader, s.session)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read stats body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stats request: unexpected status %d", resp.StatusCode)
	}
	return decodeUsage(body, s.opts.Cores)
}

// Close releases the sample log.
func (s *Sampler) Close() error {
	return s.writer.Close()
}
