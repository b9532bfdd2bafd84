package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	applogger "LottoStats/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// EnvelopeStatusKey is the echo context key holding the status written into
// the JSON envelope. Envelope responses always go out as HTTP 200, so the
// metrics label requests by this value when it is present.
const EnvelopeStatusKey = "envelope_status"

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lottostats_http_requests_total",
		Help: "HTTP requests by route, method and outcome.",
	}, []string{"path", "method", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lottostats_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "class"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lottostats_http_in_flight_requests",
		Help: "Requests currently being served.",
	})

	httpResponseSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lottostats_http_response_size_bytes",
		Help:    "Response body size.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"route"})

	registerHTTPMetrics sync.Once
)

// RouteMetrics records one sample per request labelled by the matched route
// template (/api/lotteries/:type/statistics), never the raw path. 5xx outcomes
// are logged as errors and requests slower than slow as warnings.
func RouteMetrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	registerHTTPMetrics.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInFlight, httpResponseSize)
	})
	if l == nil {
		l = applogger.NewNop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			err := next(c)

			took := time.Since(start)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := outcome(c, err)
			size := c.Response().Size

			httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(route, method, statusClass(status)).Observe(took.Seconds())
			httpResponseSize.WithLabelValues(route).Observe(float64(size))

			switch {
			case status >= http.StatusInternalServerError:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("took", took))
			case slow > 0 && took >= slow:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("took", took),
					applogger.Int64("bytes", size))
			}
			return err
		}
	}
}

// outcome prefers the envelope status, then an error returned past the
// handler, then the status line.
func outcome(c echo.Context, err error) int {
	if v, ok := c.Get(EnvelopeStatusKey).(int); ok && v > 0 {
		return v
	}
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	if s := c.Response().Status; s > 0 {
		return s
	}
	return http.StatusOK
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
