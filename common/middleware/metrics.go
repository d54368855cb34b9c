package middleware

import (
	"context"
	"net/http"
	"time"

	awspkg "github.com/yashrajoria/payment-api/pkg/aws"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware sends one batch per request: a request count, the
// latency, and error counters for 4xx/5xx responses. The batch is sent off
// the request path. Path is the route template ("/payments/intent/:id"), so
// intent ids do not become dimension values.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		data := requestMetrics(status, time.Since(start))

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    path,
			"Status":  statusCodeToRange(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsClient.Put(ctx, dimensions, data...)
		}()
	}
}

func requestMetrics(status int, latency time.Duration) []awspkg.Datum {
	data := []awspkg.Datum{
		awspkg.Count(awspkg.MetricHTTPRequests),
		awspkg.Latency(awspkg.MetricHTTPLatency, latency),
	}
	switch {
	case status >= http.StatusInternalServerError:
		data = append(data, awspkg.Count(awspkg.MetricHTTPErrors), awspkg.Count(awspkg.MetricHTTP5xx))
	case status >= http.StatusBadRequest:
		data = append(data, awspkg.Count(awspkg.MetricHTTPErrors), awspkg.Count(awspkg.MetricHTTP4xx))
	}
	return data
}

func statusCodeToRange(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
