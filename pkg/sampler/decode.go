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
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/alibaba/opensandbox/telemetry/pkg/model"
)

var (
	// ErrMalformedBody marks a response that is not a JSON array. It is retried.
	ErrMalformedBody = errors.New("malformed stats body")
	// ErrIncompleteSample marks a well-formed array that cannot fill a row.
	// The tick is dropped without retrying.
	ErrIncompleteSample = errors.New("incomplete stats sample")
)

// decodeUsage extracts the first cores readings from a /stats body.
func decodeUsage(body []byte, cores int) ([]float64, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedBody)
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: expected array, got %s", ErrMalformedBody, result.Type)
	}

	items := result.Array()
	if len(items) < cores {
		return nil, fmt.Errorf("%w: %d of %d cores", ErrIncompleteSample, len(items), cores)
	}

	usage := make([]float64, cores)
	for i := 0; i < cores; i++ {
		if items[i].Type != gjson.Number {
			return nil, fmt.Errorf("%w: %s is %s", ErrIncompleteSample, model.CoreColumn(i), items[i].Type)
		}
		v := items[i].Float()
		if !model.ValidCoreUsage(v) {
			return nil, fmt.Errorf("%w: %s out of range: %v", ErrIncompleteSample, model.CoreColumn(i), v)
		}
		usage[i] = v
	}
	return usage, nil
}
