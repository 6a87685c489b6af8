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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

func TestWriteAndReadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "data.json")
	report := model.Report{
		"drizzle": {
			{Time: 1, Cores: []float64{15, 25, 35, 45}, RequestsPerSecond: 8, FailuresPerSecond: 1, LatencyP90: 190, LatencyP95: 195, LatencyP99: 199, LatencyAverage: 150},
		},
		"prisma": {},
	}

	require.NoError(t, WriteReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Index(string(data), `"drizzle"`) < strings.Index(string(data), `"prisma"`))
	assert.Contains(t, string(data), `"1970-01-01T00:00:01.000Z"`)

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
