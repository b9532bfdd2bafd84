package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "LottoStats/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns handler panics into a 500 envelope and logs the stack.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					l.Error("http handler panic",
						applogger.Error(err),
						applogger.String("route", c.Path()),
						applogger.String("stack", string(debug.Stack())),
					)
					if c.Response().Committed {
						return
					}
					c.Set(EnvelopeStatusKey, http.StatusInternalServerError)
					_ = c.JSON(http.StatusOK, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": http.StatusText(http.StatusInternalServerError),
					})
				}
			}()
			return next(c)
		}
	}
}
