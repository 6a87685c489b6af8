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

package model

// ApiAccessTokenHeader carries the agent access token.
const ApiAccessTokenHeader = "X-Telemetry-Access-Token"

type ErrorCode string

const (
	ErrorCodeRuntimeError ErrorCode = "RUNTIME_ERROR"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// ErrorResponse is the body of every non-2xx agent response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
