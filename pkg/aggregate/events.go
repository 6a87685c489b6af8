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
	"io"
	"math"
	"strconv"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

// Column names of the k6 CSV output.
const (
	columnMetricName  = "metric_name"
	columnMetricValue = "metric_value"
	columnTimestamp   = "timestamp"
	columnStatus      = "status"
)

var errNotFinite = errors.New("value is not finite")

// ScanEvents streams every row of a k6 event log to fn. The log is either the
// k6 CSV output, plain or gzip compressed, or its parquet conversion. Rows are
// handed over in file order, which is not time order.
func ScanEvents(path string, fn func(model.MetricEvent)) error {
	if isParquet(path) {
		return scanParquetEvents(path, fn)
	}

	f, err := openCSV("event log", path)
	if err != nil {
		return err
	}
	defer f.Close()

	nameIdx, err := f.column(columnMetricName)
	if err != nil {
		return err
	}
	valueIdx, err := f.column(columnMetricValue)
	if err != nil {
		return err
	}
	tsIdx, err := f.column(columnTimestamp)
	if err != nil {
		return err
	}
	statusIdx, hasStatusColumn := f.header[columnStatus]

	for {
		record, line, err := f.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		name := model.ParseMetricName(record[nameIdx])
		if name == model.MetricOther {
			continue
		}

		event := model.MetricEvent{Name: name}
		if event.Value, err = parseFinite(record[valueIdx]); err != nil {
			return &ParseError{Path: path, Line: line, Column: columnMetricValue, Err: err}
		}
		if event.Timestamp, err = parseFinite(record[tsIdx]); err != nil {
			return &ParseError{Path: path, Line: line, Column: columnTimestamp, Err: err}
		}
		if hasStatusColumn && record[statusIdx] != "" {
			if event.Status, err = strconv.Atoi(record[statusIdx]); err != nil {
				return &ParseError{Path: path, Line: line, Column: columnStatus, Err: err}
			}
			event.HasStatus = true
		}
		fn(event)
	}
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// ReadEvents loads every recognised event of a log.
func ReadEvents(path string) ([]model.MetricEvent, error) {
	var events []model.MetricEvent
	err := ScanEvents(path, func(e model.MetricEvent) {
		events = append(events, e)
	})
	return events, err
}
