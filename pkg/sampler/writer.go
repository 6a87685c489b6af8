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
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofrs/flock"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// ErrLogLocked is returned when another sampler already owns the log.
var ErrLogLocked = errors.New("sample log is locked by another sampler")

// LogWriter appends accepted samples to a run's CSV log. Safe for concurrent
// use by overlapping ticks.
type LogWriter struct {
	mu    sync.Mutex
	path  string
	cores int
	file  *os.File
	csv   *csv.Writer
	lock  *flock.Flock
}

// LogPath returns the sample log location of a run inside folder.
func LogPath(folder, run string) string {
	return filepath.Join(folder, model.SampleLogPrefix+run+".csv")
}

// CreateLog truncates path, writes the header and keeps the file open for
// appends.
func CreateLog(path string, cores int) (*LogWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results folder: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLogLocked, path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create sample log: %w", err)
	}

	w := &LogWriter{
		path:  path,
		cores: cores,
		file:  file,
		csv:   csv.NewWriter(file),
		lock:  lock,
	}
	if err := w.writeRecord(model.SampleLogHeader(cores)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Path returns the log file location.
func (w *LogWriter) Path() string {
	return w.path
}

// Append writes one row. Rows narrower or wider than the header are rejected.
func (w *LogWriter) Append(sample model.ResourceSample) error {
	if len(sample.CoreUsage) != w.cores {
		return fmt.Errorf("%w: row has %d cores, log has %d", ErrIncompleteSample, len(sample.CoreUsage), w.cores)
	}

	record := make([]string, 0, w.cores+1)
	for _, v := range sample.CoreUsage {
		record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
	}
	record = append(record, strconv.FormatInt(sample.Timestamp, 10))

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeRecord(record)
}

// writeRecord flushes immediately; the sampler is usually stopped by a kill.
func (w *LogWriter) writeRecord(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush sample: %w", err)
	}
	return nil
}

// Close releases the file and the lock.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.file.Close()
	if unlockErr := w.lock.Unlock(); err == nil {
		err = unlockErr
	}
	_ = os.Remove(w.lock.Path())
	return err
}
