package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"LottoStats/pkg/http/middleware"

	"github.com/labstack/echo/v4"
)

// DataResponse always answers HTTP 200; the outcome travels in the envelope's status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	c.Set(middleware.EnvelopeStatusKey, statusCode)
	return c.JSON(http.StatusOK, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// StatusResponse writes the envelope with a matching HTTP status. It is meant for
// health checks and proxies that only look at the status line.
func StatusResponse(c echo.Context, statusCode int, message string, data interface{}) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	c.Set(middleware.EnvelopeStatusKey, statusCode)
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: message,
		Data:    data,
	})
}

func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return DataResponse(c, http.StatusOK, &ListDataResponse{
		Rows:  rows,
		Total: total,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// CachedResponse is SuccessResponse with a public Cache-Control max-age.
func CachedResponse(c echo.Context, maxAge time.Duration, data interface{}) error {
	if maxAge > 0 {
		c.Response().Header().Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	}
	return SuccessResponse(c, data)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// AppErrorResponse renders err as a one-element error list. Anything that is not
// an AppError becomes an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}
