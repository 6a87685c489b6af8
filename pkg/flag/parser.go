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

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alibaba/opensandbox/telemetry/pkg/log"
	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

const (
	targetHostEnv = "TELEMETRY_HOST"
	resultsDirEnv = "TELEMETRY_RESULTS_DIR"
)

var validate = validator.New()

type samplerOptions struct {
	Host           string        `validate:"required,url"`
	Name           string        `validate:"required,excludesall=/\\"`
	Folder         string        `validate:"required"`
	Interval       time.Duration `validate:"gt=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	Attempts       int           `validate:"min=1"`
	Cores          int           `validate:"min=1"`
}

type collectorOptions struct {
	Folder  string `validate:"required"`
	Output  string `validate:"required"`
	Workers int    `validate:"min=1"`
}

type agentOptions struct {
	Port int `validate:"min=1,max=65535"`
}

func setDefaults() {
	ServerLogLevel = 6
	TargetHost = ""
	RunName = ""
	ResultsDir = "results"
	SampleInterval = 200 * time.Millisecond
	RequestTimeout = 2 * time.Second
	RetryAttempts = 5
	CoreCount = model.DefaultCoreCount
	MetricsAddr = ""
	ReportPath = ""
	CollectorWorkers = 1
	ServerPort = 3000
	ServerAccessToken = ""
}

// load resets defaults, then applies the config file and environment.
func load() error {
	setDefaults()
	if err := applyConfigFile(); err != nil {
		return err
	}

	if host := os.Getenv(targetHostEnv); host != "" {
		TargetHost = host
	}
	if dir := os.Getenv(resultsDirEnv); dir != "" {
		ResultsDir = dir
	}
	return nil
}

// InitSamplerFlags parses the options of the sample subcommand.
func InitSamplerFlags(args []string) error {
	if err := load(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.StringVar(&TargetHost, "host", TargetHost, "Base URL of the server exposing /stats (e.g., http://192.168.31.144:3000)")
	fs.StringVar(&RunName, "name", RunName, "Run name; the sample log is written to <folder>/cpu-usage-<name>.csv")
	fs.StringVar(&ResultsDir, "folder", ResultsDir, "Results folder (default: results)")
	fs.DurationVar(&SampleInterval, "interval", SampleInterval, "Sampling period (default: 200ms)")
	fs.DurationVar(&RequestTimeout, "request-timeout", RequestTimeout, "Timeout of a single /stats attempt (default: 2s)")
	fs.IntVar(&RetryAttempts, "attempts", RetryAttempts, "Attempts per tick before the tick is dropped (default: 5)")
	fs.IntVar(&CoreCount, "cores", CoreCount, "Number of core columns per sample (default: 4)")
	fs.StringVar(&MetricsAddr, "metrics-addr", MetricsAddr, "Serve sampler counters on this address when set (e.g., :9100)")
	registerLogLevel(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validate.Struct(samplerOptions{
		Host:           TargetHost,
		Name:           RunName,
		Folder:         ResultsDir,
		Interval:       SampleInterval,
		RequestTimeout: RequestTimeout,
		Attempts:       RetryAttempts,
		Cores:          CoreCount,
	}); err != nil {
		return fmt.Errorf("invalid sampler options: %w", err)
	}

	log.Info("sampling %s/stats every %s into run %q", TargetHost, SampleInterval, RunName)
	return nil
}

// InitCollectorFlags parses the options of the collect subcommand.
func InitCollectorFlags(args []string) error {
	if err := load(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.StringVar(&ResultsDir, "folder", ResultsDir, "Results folder holding sample and event logs (default: results)")
	fs.StringVar(&ReportPath, "output", ReportPath, "Report file (default: data.json)")
	fs.IntVar(&CollectorWorkers, "workers", CollectorWorkers, "Runs aggregated concurrently (default: 1)")
	registerLogLevel(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if ReportPath == "" {
		ReportPath = "data.json"
	}

	if err := validate.Struct(collectorOptions{
		Folder:  ResultsDir,
		Output:  ReportPath,
		Workers: CollectorWorkers,
	}); err != nil {
		return fmt.Errorf("invalid collector options: %w", err)
	}

	log.Info("collecting runs from %s into %s", filepath.Clean(ResultsDir), ReportPath)
	return nil
}

// InitAgentFlags parses the options of the serve subcommand.
func InitAgentFlags(args []string) error {
	if err := load(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.IntVar(&ServerPort, "port", ServerPort, "Stats agent listening port (default: 3000)")
	fs.StringVar(&ServerAccessToken, "access-token", ServerAccessToken, "Access token required on every request when set")
	registerLogLevel(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validate.Struct(agentOptions{Port: ServerPort}); err != nil {
		return fmt.Errorf("invalid agent options: %w", err)
	}
	return nil
}

func registerLogLevel(fs *flag.FlagSet) {
	fs.IntVar(&ServerLogLevel, "log-level", ServerLogLevel, "Log level (0=LevelEmergency, 1=LevelAlert, 2=LevelCritical, 3=LevelError, 4=LevelWarning, 5=LevelNotice, 6=LevelInformational, 7=LevelDebug, default: 6)")
}
