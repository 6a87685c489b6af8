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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"

	"github.com/alibaba/opensandbox/telemetry/pkg/collector"
	"github.com/alibaba/opensandbox/telemetry/pkg/flag"
	"github.com/alibaba/opensandbox/telemetry/pkg/log"
	"github.com/alibaba/opensandbox/telemetry/pkg/sampler"
	"github.com/alibaba/opensandbox/telemetry/pkg/util/safego"
	"github.com/alibaba/opensandbox/telemetry/pkg/web"
)

const usage = `usage: telemetry <command> [flags]

commands:
  sample    poll a target's /stats endpoint into results/cpu-usage-<name>.csv
  collect   join every run's sample and event logs into one report
  serve     expose this host's per-core CPU usage on /stats
`

// main dispatches to the sampler, the collector or the stats agent.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	safego.InitPanicLogger(ctx)

	var err error
	switch os.Args[1] {
	case "sample":
		err = runSampler(ctx, os.Args[2:])
	case "collect":
		err = runCollector(ctx, os.Args[2:])
	case "serve":
		err = runAgent(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error("%s failed: %v", os.Args[1], err)
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func runSampler(ctx context.Context, args []string) error {
	if err := flag.InitSamplerFlags(args); err != nil {
		return err
	}
	log.SetLevel(flag.ServerLogLevel)

	reg := prometheus.NewRegistry()
	s, err := sampler.New(sampler.Options{
		Host:           flag.TargetHost,
		LogPath:        sampler.LogPath(flag.ResultsDir, flag.RunName),
		Interval:       flag.SampleInterval,
		RequestTimeout: flag.RequestTimeout,
		Attempts:       flag.RetryAttempts,
		Cores:          flag.CoreCount,
	}, reg)
	if err != nil {
		return err
	}
	defer s.Close()

	if flag.MetricsAddr != "" {
		srv := &http.Server{Addr: flag.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		safego.Go(func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("sampler metrics listener: %v", err)
			}
		})
		defer srv.Close()
	}

	log.Info("sampler session %s started", s.Session())
	s.Run(ctx)
	log.Info("sampler session %s stopped", s.Session())
	return nil
}

func runCollector(ctx context.Context, args []string) error {
	if err := flag.InitCollectorFlags(args); err != nil {
		return err
	}
	log.SetLevel(flag.ServerLogLevel)

	report, err := collector.New(flag.ResultsDir, flag.CollectorWorkers).Collect(ctx)
	if err != nil {
		return err
	}
	if err := collector.WriteReport(flag.ReportPath, report); err != nil {
		return err
	}
	log.Info("all data processed: %d runs written to %s", len(report), flag.ReportPath)
	return nil
}

func runAgent(ctx context.Context, args []string) error {
	if err := flag.InitAgentFlags(args); err != nil {
		return err
	}
	log.SetLevel(flag.ServerLogLevel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", flag.ServerPort),
		Handler: web.NewRouter(flag.ServerAccessToken, reg),
	}
	safego.Go(func() {
		<-ctx.Done()
		_ = srv.Close()
	})

	log.Info("stats agent listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start stats agent: %w", err)
	}
	return nil
}
