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
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"
)

// csvFile is an open, possibly gzip-compressed, CSV artifact.
type csvFile struct {
	path   string
	file   *os.File
	gz     *gzip.Reader
	reader *csv.Reader
	header map[string]int
}

func openCSV(kind, path string) (*csvFile, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s %s", ErrMissingArtifact, kind, path)
		}
		return nil, fmt.Errorf("failed to open %s %s: %w", kind, path, err)
	}

	f := &csvFile{path: path, file: file}
	buffered := bufio.NewReader(file)
	var src io.Reader = buffered
	if magic, _ := buffered.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			_ = file.Close()
			return nil, &ParseError{Path: path, Line: 0, Err: err}
		}
		f.gz = gz
		src = gz
	}

	f.reader = csv.NewReader(src)
	f.reader.ReuseRecord = true

	header, err := f.reader.Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: path, Line: 1, Err: errors.New("missing header")}
		}
		return nil, f.wrap(err)
	}
	f.header = make(map[string]int, len(header))
	for i, name := range header {
		f.header[name] = i
	}
	return f, nil
}

// column returns the index of a header column.
func (f *csvFile) column(name string) (int, error) {
	idx, ok := f.header[name]
	if !ok {
		return 0, &ParseError{Path: f.path, Line: 1, Column: name, Err: errors.New("column not found")}
	}
	return idx, nil
}

// next returns the following record, or io.EOF once the artifact is drained.
func (f *csvFile) next() ([]string, int, error) {
	record, err := f.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		return nil, 0, f.wrap(err)
	}
	line, _ := f.reader.FieldPos(0)
	return record, line, nil
}

func (f *csvFile) wrap(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Path: f.path, Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Path: f.path, Err: err}
}

func (f *csvFile) Close() error {
	if f.gz != nil {
		_ = f.gz.Close()
	}
	return f.file.Close()
}
