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

package aggregate

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// ScanSamples streams every row of a sample log to fn in file order.
func ScanSamples(path string, fn func(model.ResourceSample)) error {
	f, err := openCSV("sample log", path)
	if err != nil {
		return err
	}
	defer f.Close()

	tsIdx, err := f.column(model.TimestampColumn)
	if err != nil {
		return err
	}
	cores, err := coreColumns(f)
	if err != nil {
		return err
	}

	for {
		record, line, err := f.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		ts, err := strconv.ParseInt(record[tsIdx], 10, 64)
		if err != nil {
			return &ParseError{Path: path, Line: line, Column: model.TimestampColumn, Err: err}
		}
		usage := make([]float64, len(cores))
		for i, idx := range cores {
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return &ParseError{Path: path, Line: line, Column: model.CoreColumn(i), Err: err}
			}
			if !model.ValidCoreUsage(v) {
				return &ParseError{Path: path, Line: line, Column: model.CoreColumn(i), Err: fmt.Errorf("usage %v out of range", v)}
			}
			usage[i] = v
		}
		fn(model.ResourceSample{Timestamp: ts, CoreUsage: usage})
	}
}

// ReadSamples loads a whole sample log.
func ReadSamples(path string) ([]model.ResourceSample, error) {
	var samples []model.ResourceSample
	err := ScanSamples(path, func(s model.ResourceSample) {
		samples = append(samples, s)
	})
	return samples, err
}

// coreColumns returns the record indexes of core1..coreN, which must be
// contiguous from core1.
func coreColumns(f *csvFile) ([]int, error) {
	type core struct{ n, idx int }
	var found []core
	for name, idx := range f.header {
		if !model.IsCoreColumn(name) {
			continue
		}
		n, err := strconv.Atoi(name[len("core"):])
		if err != nil || n < 1 {
			return nil, &ParseError{Path: f.path, Line: 1, Column: name, Err: errors.New("bad core column")}
		}
		found = append(found, core{n: n, idx: idx})
	}
	if len(found) == 0 {
		return nil, &ParseError{Path: f.path, Line: 1, Column: model.CoreColumn(0), Err: errors.New("column not found")}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	out := make([]int, len(found))
	for i, c := range found {
		if c.n != i+1 {
			return nil, &ParseError{Path: f.path, Line: 1, Column: model.CoreColumn(i), Err: errors.New("column not found")}
		}
		out[i] = c.idx
	}
	return out, nil
}
