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

package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alibaba/opensandbox/telemetry/pkg/log"
	"github.com/alibaba/opensandbox/telemetry/pkg/web/controller"
	"github.com/alibaba/opensandbox/telemetry/pkg/web/model"
)

// NewRouter builds the stats agent. Request counters and the /metrics
// endpoint both use reg.
func NewRouter(accessToken string, reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logMiddleware(), metricsMiddleware(reg), accessTokenMiddleware(accessToken))

	r.GET("/ping", controller.PingHandler)
	r.GET("/stats", withStats(func(c *controller.StatsController) { c.GetStats() }))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func withStats(fn func(*controller.StatsController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewStatsController(ctx))
	}
}

func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		requestedToken := ctx.GetHeader(model.ApiAccessTokenHeader)
		if requestedToken == "" || requestedToken != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Code:    model.ErrorCodeUnauthorized,
				Message: "invalid or missing header " + model.ApiAccessTokenHeader,
			})
			return
		}

		ctx.Next()
	}
}

func metricsMiddleware(reg prometheus.Registerer) gin.HandlerFunc {
	requests := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_agent_requests_total",
		Help: "Stats agent requests by route and status.",
	}, []string{"path", "code"})

	return func(ctx *gin.Context) {
		ctx.Next()
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requests.WithLabelValues(path, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}

// stats is polled several times a second, so requests log at debug level.
func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log.Debug("Requested: %v - %v", ctx.Request.Method, ctx.Request.URL.String())
		ctx.Next()
	}
}
