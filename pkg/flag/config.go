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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const configFileEnv = "TELEMETRY_CONFIG"

// fileConfig mirrors the optional YAML configuration file. Zero values leave
// the built-in defaults untouched.
type fileConfig struct {
	LogLevel *int `yaml:"log_level"`
	Sampler  struct {
		Host           string        `yaml:"host"`
		Name           string        `yaml:"name"`
		Interval       time.Duration `yaml:"interval"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		Attempts       int           `yaml:"attempts"`
		Cores          int           `yaml:"cores"`
		MetricsAddr    string        `yaml:"metrics_addr"`
	} `yaml:"sampler"`
	Collector struct {
		Output  string `yaml:"output"`
		Workers int    `yaml:"workers"`
	} `yaml:"collector"`
	Agent struct {
		Port        int    `yaml:"port"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"agent"`
	ResultsDir string `yaml:"results_dir"`
}

func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &fileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfigFile overlays the file named by TELEMETRY_CONFIG, if any.
func applyConfigFile() error {
	path := os.Getenv(configFileEnv)
	if path == "" {
		return nil
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		return err
	}
	if cfg.LogLevel != nil {
		ServerLogLevel = *cfg.LogLevel
	}
	setString(&ResultsDir, cfg.ResultsDir)

	setString(&TargetHost, cfg.Sampler.Host)
	setString(&RunName, cfg.Sampler.Name)
	setDuration(&SampleInterval, cfg.Sampler.Interval)
	setDuration(&RequestTimeout, cfg.Sampler.RequestTimeout)
	setInt(&RetryAttempts, cfg.Sampler.Attempts)
	setInt(&CoreCount, cfg.Sampler.Cores)
	setString(&MetricsAddr, cfg.Sampler.MetricsAddr)

	setString(&ReportPath, cfg.Collector.Output)
	setInt(&CollectorWorkers, cfg.Collector.Workers)

	setInt(&ServerPort, cfg.Agent.Port)
	setString(&ServerAccessToken, cfg.Agent.AccessToken)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
