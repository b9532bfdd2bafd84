package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type pageRequest struct {
	Type  string `param:"type" validate:"required"`
	Limit int    `query:"limit" default:"50" validate:"gte=1,lte=100"`
	From  string `query:"from" validate:"omitempty,datetime=2006-01-02"`
}

func bindPage(t *testing.T, target string) (*pageRequest, interface{}) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	c.SetParamNames("type")
	c.SetParamValues("mega645")
	req := &pageRequest{}
	return req, ReadAndValidateRequest(c, req)
}

func TestReadAndValidateRequest(t *testing.T) {
	req, verr := bindPage(t, "/x")
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if req.Type != "mega645" || req.Limit != 50 {
		t.Fatalf("bound request = %+v", req)
	}

	_, verr = bindPage(t, "/x?limit=500&from=06/01/2024")
	errs, ok := verr.([]ValidationError)
	if !ok || len(errs) != 2 {
		t.Fatalf("expected two validation errors, got %#v", verr)
	}
	if errs[0].Field != "limit" || errs[0].Code != "ERR_LTE" {
		t.Fatalf("limit error = %+v", errs[0])
	}
	if errs[1].Field != "from" || !strings.Contains(errs[1].Message, "YYYY-MM-DD") {
		t.Fatalf("from error = %+v", errs[1])
	}
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := AppErrorResponse(c, FieldError("date", "expected YYYY-MM-DD")); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d, want 200", rec.Code)
	}
	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != http.StatusBadRequest || len(body.Data) != 1 || body.Data[0].Field != "date" {
		t.Fatalf("envelope = %+v", body)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = StatusResponse(c, http.StatusServiceUnavailable, "clickhouse down", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("StatusResponse http status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = CachedResponse(c, time.Minute, "ok")
	if got := rec.Header().Get(echo.HeaderCacheControl); got != "public, max-age=60" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestClientStatusError(t *testing.T) {
	var ua, ct string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua, ct = r.UserAgent(), r.Header.Get("Content-Type")
		if r.URL.Query().Get("limit") == "0" {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(time.Second))
	var out struct{ OK bool }
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost,
		URL:    srv.URL,
		Body:   map[string]int{"n": 1},
	}, &out)
	if err != nil || !out.OK {
		t.Fatalf("SendAndParse = %+v, %v", out, err)
	}
	if ua != defaultUserAgent || ct != "application/json" {
		t.Fatalf("headers: ua=%q ct=%q", ua, ct)
	}

	err = c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"limit": {"0"}},
	}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest || se.Body != "bad limit" {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
	if IsRetryable(err) {
		t.Fatal("400 should not be retryable")
	}
	if !IsRetryable(&StatusError{Code: http.StatusBadGateway}) || !IsRetryable(errors.New("connection reset")) {
		t.Fatal("5xx and transport errors should be retryable")
	}
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(pingRoutes{}, WithHost("127.0.0.1"), WithPort(0), WithMetrics(false, ""))
	if s.Addr() != "" {
		t.Fatalf("addr before start = %q", s.Addr())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if body.Status != http.StatusOK || body.Data != "pong" {
		t.Fatalf("unexpected envelope %+v", body)
	}

	// a second server on the same address must fail synchronously
	dup := NewServer(nil, WithHost("127.0.0.1"), WithPort(portOf(t, s.Addr())), WithMetrics(false, ""))
	if err := dup.Start(); err == nil {
		t.Fatal("expected bind error for a taken port")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func portOf(t *testing.T, addr string) int {
	t.Helper()
	i := strings.LastIndex(addr, ":")
	var p int
	for _, ch := range addr[i+1:] {
		p = p*10 + int(ch-'0')
	}
	return p
}
