package ratelimit

import (
	"github.com/labstack/echo/v4"

	"LottoStats/internal/service/metrics"
	xhttp "LottoStats/pkg/http"
)

// Middleware limits requests per client IP and route name.
func (l *Limiter) Middleware(name string, capacity, refillPerSec float64) echo.MiddlewareFunc {
	if capacity <= 0 {
		capacity = 5
	}
	if refillPerSec <= 0 {
		refillPerSec = 1
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()+":"+name, capacity, refillPerSec) {
				metrics.RateLimited.WithLabelValues(name).Inc()
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
			}
			return next(c)
		}
	}
}
