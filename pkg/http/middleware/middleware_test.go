package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouteMetricsUsesTemplate(t *testing.T) {
	e := echo.New()
	e.Use(RouteMetrics(nil, 0))
	e.GET("/api/lotteries/:type", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("type"))
	})

	for _, typ := range []string{"power655", "mega645"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lotteries/"+typ, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != typ {
			t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/lotteries/:type", http.MethodGet, "200"))
	if got != 2 {
		t.Fatalf("expected 2 requests under the route template, got %v", got)
	}
}

func TestRecoverWritesEnvelope(t *testing.T) {
	e := echo.New()
	e.Use(Recover(nil))
	e.GET("/boom", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 envelope, got %d", body.Status)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{101: "1xx", 204: "2xx", 302: "3xx", 429: "4xx", 503: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Fatalf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestCORSPreflightAndOrigins(t *testing.T) {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowOrigins: []string{"https://lotto.example"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:       10 * time.Minute,
	}))
	e.GET("/api/lotteries", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodOptions, "/api/lotteries", nil)
	req.Header.Set(echo.HeaderOrigin, "https://lotto.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderAccessControlMaxAge) != "600" {
		t.Fatalf("max-age = %q", rec.Header().Get(echo.HeaderAccessControlMaxAge))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/lotteries", nil)
	req.Header.Set(echo.HeaderOrigin, "https://other.example")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderAccessControlAllowOrigin) != "" {
		t.Fatalf("foreign origin: status %d allow-origin %q", rec.Code, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	}
}

func TestRouteMetricsUsesEnvelopeStatus(t *testing.T) {
	e := echo.New()
	e.Use(RouteMetrics(nil, 0))
	e.GET("/api/lotteries/:type/statistics", func(c echo.Context) error {
		c.Set(EnvelopeStatusKey, http.StatusNotFound)
		return c.JSON(http.StatusOK, map[string]int{"status": http.StatusNotFound})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lotteries/keno/statistics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status line = %d", rec.Code)
	}
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/lotteries/:type/statistics", http.MethodGet, "404"))
	if got != 1 {
		t.Fatalf("expected the envelope 404 to be counted, got %v", got)
	}
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogging(nil))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}
