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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/opensandbox/telemetry/pkg/aggregate"
	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

const k6Header = "metric_name,timestamp,metric_value,status"

func writeRun(t *testing.T, dir, name string, seconds ...int) {
	t.Helper()
	samples := []string{"core1,core2,core3,core4,timestamp"}
	events := []string{k6Header}
	for _, s := range seconds {
		samples = append(samples, fmt.Sprintf("10,20,30,40,%d", s*1000+100))
		events = append(events,
			fmt.Sprintf("http_reqs,%d.1,1,200", s),
			fmt.Sprintf("http_req_failed,%d.2,0,200", s),
			fmt.Sprintf("http_req_duration,%d.3,12,200", s),
		)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpu-usage-"+name+".csv"), []byte(strings.Join(samples, "\n")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(strings.Join(events, "\n")+"\n"), 0o644))
}

func TestDiscoverPairsArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "prisma", 1)
	writeRun(t, dir, "drizzle", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.csv.gz"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpu-usage-drizzle.csv.lock"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	runs, err := Discover(dir)
	require.NoError(t, err)

	var names []string
	for _, r := range runs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"drizzle", "go", "prisma"}, names)
	assert.Equal(t, filepath.Join(dir, "cpu-usage-go.csv"), runs[1].SampleLog)
	assert.Equal(t, filepath.Join(dir, "go.csv.gz"), runs[1].EventLog)
}

func TestDiscoverRejectsDuplicateRun(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "drizzle", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drizzle.csv.gz"), nil, 0o644))

	_, err := Discover(dir)
	assert.Error(t, err)
}

func TestCollectBuildsReport(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "drizzle", 3, 1, 2)
	writeRun(t, dir, "prisma", 5)

	report, err := New(dir, 1).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"drizzle", "prisma"}, report.RunNames())

	var seconds []int64
	for _, b := range report["drizzle"] {
		seconds = append(seconds, b.Time)
	}
	assert.Equal(t, []int64{1, 2, 3}, seconds)
	require.Len(t, report["prisma"], 1)
	assert.Equal(t, []float64{10, 20, 30, 40}, report["prisma"][0].Cores)
}

func TestCollectParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		writeRun(t, dir, fmt.Sprintf("run-%d", i), 1, 2, i+3)
	}

	sequential, err := New(dir, 1).Collect(context.Background())
	require.NoError(t, err)
	parallel, err := New(dir, 3).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sequential, parallel)
}

func TestCollectFailsOnMissingSampleLog(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "drizzle", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.csv"), []byte(k6Header+"\n"), 0o644))

	for _, workers := range []int{1, 4} {
		report, err := New(dir, workers).Collect(context.Background())
		assert.Nil(t, report)

		var runErr *RunError
		require.ErrorAs(t, err, &runErr)
		assert.Equal(t, "orphan", runErr.Run)
		assert.ErrorIs(t, err, aggregate.ErrMissingArtifact)
	}
}

func TestCollectStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "a", 1)
	writeRun(t, dir, "b", 1)
	writeRun(t, dir, "c", 1)

	var visited []string
	c := New(dir, 1)
	c.aggregate = func(run model.Run) ([]model.Bucket, error) {
		visited = append(visited, run.Name)
		if run.Name == "b" {
			return nil, errors.New("corrupt")
		}
		return aggregate.Aggregate(run)
	}

	_, err := c.Collect(context.Background())
	assert.EqualError(t, err, `run "b": corrupt`)
	assert.Equal(t, []string{"a", "b"}, visited)
}

func TestCollectEmptyFolder(t *testing.T) {
	report, err := New(t.TempDir(), 1).Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestCollectHonoursCancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "drizzle", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(dir, 1).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollectRejectsNonFiniteCoreUsage(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "prisma", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpu-usage-prisma.csv"),
		[]byte("core1,core2,core3,core4,timestamp\nNaN,150,-5,Inf,1000\n"), 0o644))

	report, err := New(dir, 1).Collect(context.Background())
	assert.Nil(t, report)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, "prisma", runErr.Run)
	var perr *aggregate.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "core1", perr.Column)
}

func TestDiscoverFindsParquetRuns(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "drizzle", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prisma.parquet"), nil, 0o644))

	runs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "prisma", runs[1].Name)
	assert.Equal(t, filepath.Join(dir, "prisma.parquet"), runs[1].EventLog)
	assert.Equal(t, filepath.Join(dir, "cpu-usage-prisma.csv"), runs[1].SampleLog)
}

func TestDiscoverRejectsCSVAndParquetOfSameRun(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir, "drizzle", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drizzle.parquet"), nil, 0o644))

	_, err := Discover(dir)
	assert.Error(t, err)
}
