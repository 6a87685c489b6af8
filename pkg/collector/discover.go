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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// eventLogPattern matches k6 CSV outputs, plain or gzip compressed, and their
// parquet conversions.
const eventLogPattern = "*.{csv,csv.gz,parquet}"

// Discover lists every run in folder, in directory listing order. A run is an
// event log; its sample log is expected next to it as cpu-usage-<name>.csv.
func Discover(folder string) ([]model.Run, error) {
	matches, err := doublestar.Glob(os.DirFS(folder), eventLogPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	seen := make(map[string]string, len(matches))
	runs := make([]model.Run, 0, len(matches))
	for _, match := range matches {
		if strings.HasPrefix(match, model.SampleLogPrefix) {
			continue
		}
		name := runName(match)
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("run %q has two event logs: %s and %s", name, prev, match)
		}
		seen[name] = match

		runs = append(runs, model.Run{
			Name:      name,
			SampleLog: filepath.Join(folder, model.SampleLogPrefix+name+".csv"),
			EventLog:  filepath.Join(folder, match),
		})
	}
	return runs, nil
}

func runName(file string) string {
	if name, ok := strings.CutSuffix(file, ".parquet"); ok {
		return name
	}
	file = strings.TrimSuffix(file, ".gz")
	return strings.TrimSuffix(file, ".csv")
}
