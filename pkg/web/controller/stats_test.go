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

package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alibaba/opensandbox/telemetry/pkg/usage"
	"github.com/alibaba/opensandbox/telemetry/pkg/web/model"
)

func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	return ctx, w
}

// scriptedSource replays fixed snapshots, one per call.
func scriptedSource(snapshots ...[]usage.CoreTimes) usage.Source {
	i := 0
	return usage.SourceFunc(func() ([]usage.CoreTimes, error) {
		s := snapshots[i]
		if i < len(snapshots)-1 {
			i++
		}
		return s, nil
	})
}

func getStats(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	ctx, w := newTestContext(http.MethodGet, "/stats", nil)
	NewStatsController(ctx).GetStats()
	return w
}

func TestGetStatsBaselineThenDelta(t *testing.T) {
	InitStatsSource(scriptedSource(
		[]usage.CoreTimes{{Busy: 0, Total: 0}, {Busy: 0, Total: 0}},
		[]usage.CoreTimes{{Busy: 25, Total: 100}, {Busy: 66.6, Total: 100}},
	))
	defer InitStatsSource(usage.HostSource{})

	w := getStats(t)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = getStats(t)
	assert.Equal(t, http.StatusOK, w.Code)
	var got []int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []int{25, 67}, got)
}

func TestGetStatsSourceError(t *testing.T) {
	InitStatsSource(usage.SourceFunc(func() ([]usage.CoreTimes, error) {
		return nil, errors.New("no /proc")
	}))
	defer InitStatsSource(usage.HostSource{})

	w := getStats(t)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrorCodeRuntimeError, resp.Code)
	assert.Contains(t, resp.Message, "no /proc")
}

// TestGetStatsHost exercises the gopsutil source end-to-end.
func TestGetStatsHost(t *testing.T) {
	InitStatsSource(usage.HostSource{})

	_ = getStats(t)
	w := getStats(t)
	require.Equal(t, http.StatusOK, w.Code)

	var got []int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEmpty(t, got)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
}

func TestRespondErrorWithoutMessage(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	ctrl := &basicController{ctx: ctx}

	ctrl.RespondError(http.StatusUnauthorized, model.ErrorCodeUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrorCodeUnauthorized, resp.Code)
	assert.Empty(t, resp.Message)
}

func TestRespondSuccessNilBody(t *testing.T) {
	ctx, w := newTestContext(http.MethodGet, "/", nil)
	(&basicController{ctx: ctx}).RespondSuccess(nil)
	ctx.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
