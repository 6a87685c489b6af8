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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStats fails the first failures requests with a 500 and then serves body.
func flakyStats(t *testing.T, failures int32, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if r.URL.Path != "/stats" {
			http.NotFound(w, r)
			return
		}
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestSampler(t *testing.T, host string) (*Sampler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s, err := New(Options{
		Host:           host,
		LogPath:        LogPath(t.TempDir(), "drizzle"),
		Interval:       10 * time.Millisecond,
		RequestTimeout: time.Second,
		Attempts:       5,
		Cores:          4,
	}, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return s, reg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestTickAcceptsAfterTransientFailures(t *testing.T) {
	srv, hits := flakyStats(t, 4, `[10,20,30,40]`)
	s, _ := newTestSampler(t, srv.URL)

	assert.True(t, s.Tick(context.Background()))
	assert.Equal(t, int32(5), hits.Load())

	lines := readLines(t, s.writer.Path())
	assert.Equal(t, []string{"core1,core2,core3,core4,timestamp", "10,20,30,40,1700000000123"}, lines)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Ticks.WithLabelValues(tickAccepted)))
	assert.Equal(t, 4.0, testutil.ToFloat64(s.metrics.AttemptFailures))
}

func TestTickDropsAfterExhaustedAttempts(t *testing.T) {
	srv, hits := flakyStats(t, 5, `[10,20,30,40]`)
	s, _ := newTestSampler(t, srv.URL)

	assert.False(t, s.Tick(context.Background()))
	assert.Equal(t, int32(5), hits.Load())

	lines := readLines(t, s.writer.Path())
	assert.Equal(t, []string{"core1,core2,core3,core4,timestamp"}, lines)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Ticks.WithLabelValues(tickDropped)))
}

func TestTickDropsBaselineWithoutRetry(t *testing.T) {
	srv, hits := flakyStats(t, 0, `[]`)
	s, _ := newTestSampler(t, srv.URL)

	assert.False(t, s.Tick(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
	assert.Len(t, readLines(t, s.writer.Path()), 1)
}

func TestTickNeverWritesPartialRows(t *testing.T) {
	for _, body := range []string{`[1,null,3,4]`, `[1,2,3]`, `[1,"2",3,4]`, `[1,2,3,140]`} {
		srv, _ := flakyStats(t, 0, body)
		s, _ := newTestSampler(t, srv.URL)

		assert.False(t, s.Tick(context.Background()), body)
		assert.Len(t, readLines(t, s.writer.Path()), 1, body)
	}
}

func TestTickIgnoresExtraCores(t *testing.T) {
	srv, _ := flakyStats(t, 0, `[1,2,3,4,5,6,7,8]`)
	s, _ := newTestSampler(t, srv.URL)

	require.True(t, s.Tick(context.Background()))
	assert.Equal(t, "1,2,3,4,1700000000123", readLines(t, s.writer.Path())[1])
}

func TestTickRetriesMalformedBody(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"oops":`))
			return
		}
		_, _ = w.Write([]byte(`[5,6,7,8]`))
	}))
	defer srv.Close()
	s, _ := newTestSampler(t, srv.URL)

	assert.True(t, s.Tick(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestTickTreatsTimeoutAsFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`[5,6,7,8]`))
	}))
	defer srv.Close()
	s, _ := newTestSampler(t, srv.URL)
	s.client.Timeout = 50 * time.Millisecond

	assert.True(t, s.Tick(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestTickSendsSessionHeader(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get(SessionHeader)
		_, _ = w.Write([]byte(`[1,2,3,4]`))
	}))
	defer srv.Close()
	s, _ := newTestSampler(t, srv.URL+"/")

	require.True(t, s.Tick(context.Background()))
	assert.Equal(t, s.Session(), <-got)
	assert.NotEmpty(t, s.Session())
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := flakyStats(t, 0, `[1,2,3,4]`)
	s, _ := newTestSampler(t, srv.URL)
	s.now = time.Now

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("sampler did not stop")
	}

	lines := readLines(t, s.writer.Path())
	assert.Greater(t, len(lines), 1)
	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, ","), 5)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(Options{LogPath: filepath.Join(t.TempDir(), "x.csv"), Interval: time.Second, Cores: 4}, nil)
	assert.Error(t, err)
	_, err = New(Options{LogPath: filepath.Join(t.TempDir(), "x.csv"), Interval: time.Second, Attempts: 5}, nil)
	assert.Error(t, err)
	_, err = New(Options{LogPath: filepath.Join(t.TempDir(), "x.csv"), Attempts: 5, Cores: 4}, nil)
	assert.Error(t, err)
}
