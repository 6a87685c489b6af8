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
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

const parquetExt = ".parquet"

// parquetBatch is the number of rows decoded per read.
const parquetBatch = 256

func isParquet(path string) bool {
	return strings.HasSuffix(path, parquetExt)
}

// parquetColumns holds the leaf indexes of the k6 columns in a parquet event
// log. status is -1 when the log has no status column.
type parquetColumns struct {
	path      string
	name      int
	value     int
	timestamp int
	status    int
	// tsScale converts a TIMESTAMP logical value to epoch seconds.
	tsScale float64
}

// scanParquetEvents reads the parquet conversion of a k6 CSV output. Line in
// a returned *ParseError is the 1-based row number.
func scanParquetEvents(path string, fn func(model.MetricEvent)) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: event log %s", ErrMissingArtifact, path)
		}
		return fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat event log %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}

	cols, err := lookupParquetColumns(path, pf.Schema())
	if err != nil {
		return err
	}

	row := 0
	buf := make([]parquet.Row, parquetBatch)
	for _, group := range pf.RowGroups() {
		err := readRowGroup(group, buf, func(values parquet.Row) error {
			row++
			event, ok, err := cols.decode(values, row)
			if err != nil {
				return err
			}
			if ok {
				fn(event)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func lookupParquetColumns(path string, schema *parquet.Schema) (*parquetColumns, error) {
	cols := &parquetColumns{path: path, status: -1, tsScale: 1}
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{columnMetricName, &cols.name},
		{columnMetricValue, &cols.value},
		{columnTimestamp, &cols.timestamp},
	} {
		leaf, ok := schema.Lookup(c.name)
		if !ok {
			return nil, &ParseError{Path: path, Column: c.name, Err: errors.New("column not found")}
		}
		*c.dst = leaf.ColumnIndex
		if c.name == columnTimestamp {
			cols.tsScale = timestampScale(leaf.Node.Type().LogicalType())
		}
	}
	if leaf, ok := schema.Lookup(columnStatus); ok {
		cols.status = leaf.ColumnIndex
	}
	return cols, nil
}

// timestampScale returns the seconds per stored unit of a timestamp column.
// Plain numeric columns already hold epoch seconds.
func timestampScale(lt *format.LogicalType) float64 {
	if lt == nil || lt.Timestamp == nil {
		return 1
	}
	switch {
	case lt.Timestamp.Unit.Millis != nil:
		return 1e-3
	case lt.Timestamp.Unit.Micros != nil:
		return 1e-6
	case lt.Timestamp.Unit.Nanos != nil:
		return 1e-9
	default:
		return 1
	}
}

func readRowGroup(group parquet.RowGroup, buf []parquet.Row, fn func(parquet.Row) error) error {
	rows := group.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, values := range buf[:n] {
			if ferr := fn(values); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// decode turns one row into an event. ok is false for metrics aggregation
// ignores.
func (c *parquetColumns) decode(values parquet.Row, row int) (event model.MetricEvent, ok bool, err error) {
	var name, value, ts, status parquet.Value
	for _, v := range values {
		switch v.Column() {
		case c.name:
			name = v
		case c.value:
			value = v
		case c.timestamp:
			ts = v
		case c.status:
			status = v
		}
	}

	if name.IsNull() {
		return event, false, &ParseError{Path: c.path, Line: row, Column: columnMetricName, Err: errors.New("value is null")}
	}
	event.Name = model.ParseMetricName(parquetString(name))
	if event.Name == model.MetricOther {
		return event, false, nil
	}

	if event.Value, err = parquetFloat(value); err != nil {
		return event, false, &ParseError{Path: c.path, Line: row, Column: columnMetricValue, Err: err}
	}
	if event.Timestamp, err = parquetFloat(ts); err != nil {
		return event, false, &ParseError{Path: c.path, Line: row, Column: columnTimestamp, Err: err}
	}
	event.Timestamp *= c.tsScale

	if c.status >= 0 && !status.IsNull() {
		code, err := parquetInt(status)
		if err != nil {
			return event, false, &ParseError{Path: c.path, Line: row, Column: columnStatus, Err: err}
		}
		if code >= 0 {
			event.Status, event.HasStatus = code, true
		}
	}
	return event, true, nil
}

func parquetString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func parquetFloat(v parquet.Value) (float64, error) {
	if v.IsNull() {
		return 0, errors.New("value is null")
	}
	var f float64
	switch v.Kind() {
	case parquet.Double:
		f = v.Double()
	case parquet.Float:
		f = float64(v.Float())
	case parquet.Int64:
		f = float64(v.Int64())
	case parquet.Int32:
		f = float64(v.Int32())
	case parquet.ByteArray:
		return parseFinite(string(v.ByteArray()))
	default:
		return 0, fmt.Errorf("unsupported %s value", v.Kind())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

// parquetInt reads a status code. An empty string stands for no status and
// yields -1.
func parquetInt(v parquet.Value) (int, error) {
	switch v.Kind() {
	case parquet.Int64:
		return int(v.Int64()), nil
	case parquet.Int32:
		return int(v.Int32()), nil
	case parquet.ByteArray:
		s := string(v.ByteArray())
		if s == "" {
			return -1, nil
		}
		return strconv.Atoi(s)
	case parquet.Double:
		return int(v.Double()), nil
	default:
		return 0, fmt.Errorf("unsupported %s value", v.Kind())
	}
}
