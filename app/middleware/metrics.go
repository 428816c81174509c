package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/metrics"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Metrics records request count and latency per route template. Handler
// errors are passed on untouched; register it outside Recover so panics are
// counted too.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		route := routeOf(c)
		method := c.Request().Method
		status := strconv.Itoa(statusOf(c, err))

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

// statusOf predicts the status the error handler will write for err.
func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// SlowRequestWatchdog logs requests slower than threshold. It never aborts a
// request.
func SlowRequestWatchdog(threshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			latency := time.Since(start)
			if threshold > 0 && latency > threshold {
				route := routeOf(c)
				metrics.SlowRequestsTotal.WithLabelValues(c.Request().Method, route).Inc()
				logrus.WithFields(logrus.Fields{
					"method":       c.Request().Method,
					"route":        route,
					"uri":          c.Request().RequestURI,
					"latency":      latency.String(),
					"threshold_ms": threshold.Milliseconds(),
				}).Warn("slow request")
			}
			return err
		}
	}
}

func routeOf(c echo.Context) string {
	if path := c.Path(); path != "" {
		return path
	}
	return "unmatched"
}
