package api

import (
	"context"
	"net/http"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/internal/service/metrics"
	"LottoStats/internal/service/ratelimit"
	"LottoStats/internal/usecase"
	xhttp "LottoStats/pkg/http"
	applogger "LottoStats/pkg/logger"

	"github.com/labstack/echo/v4"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, t models.LotteryType, topN int) (*models.LotteryStatistics, error)
	GetFrequencies(ctx context.Context, t models.LotteryType, days int) (*models.FrequencyReport, error)
	GetPatterns(ctx context.Context, t models.LotteryType, limit, recent int) (*models.AdvancedPattern, error)
	GetResults(ctx context.Context, t models.LotteryType, f domrepo.ResultFilter) (*models.ResultPage, error)
	GetResult(ctx context.Context, t models.LotteryType, id string) (*models.LotteryResult, error)
}

type SuggestionService interface {
	Algorithms() []domsvc.StrategyInfo
	Generate(ctx context.Context, t models.LotteryType, algorithm string, targetDate time.Time) (*models.Suggestion, error)
	GenerateAll(ctx context.Context, t models.LotteryType, targetDate time.Time) (*models.SuggestionSet, error)
	ListPredictions(ctx context.Context, t models.LotteryType, f domrepo.PredictionFilter) ([]models.PredictionRecord, error)
	GetPrediction(ctx context.Context, id string) (*models.PredictionRecord, error)
}

type PerformanceService interface {
	GetPerformance(ctx context.Context, t models.LotteryType) ([]models.AlgorithmPerformance, error)
}

type IngestService interface {
	Ingest(ctx context.Context, r models.LotteryResult, source string) (bool, error)
}

type SyncService interface {
	RunOnce(ctx context.Context, t models.LotteryType) (*usecase.SyncReport, error)
}

type HealthChecker interface {
	Health(ctx context.Context) error
}

// RateLimit bounds suggestion requests per client.
type RateLimit struct {
	Capacity float64
	Refill   float64
}

// LotteryEchoHandler serves the lottery REST API.
type LotteryEchoHandler struct {
	stats   StatisticsService
	suggest SuggestionService
	perf    PerformanceService
	ingest  IngestService
	sync    SyncService
	health  HealthChecker
	live    echo.HandlerFunc
	limiter *ratelimit.Limiter
	limit   RateLimit
	logger  *applogger.Logger
}

type IngestResponse struct {
	Result  models.LotteryResult `json:"result"`
	Created bool                 `json:"created"`
}

// NewLotteryEchoHandler wires the handler. sync and live may be nil, in which case
// their routes are not registered.
func NewLotteryEchoHandler(
	logger *applogger.Logger,
	stats StatisticsService,
	suggest SuggestionService,
	perf PerformanceService,
	ingest IngestService,
	sync SyncService,
	health HealthChecker,
	live echo.HandlerFunc,
	limiter *ratelimit.Limiter,
	limit RateLimit,
) *LotteryEchoHandler {
	if logger == nil {
		logger = applogger.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &LotteryEchoHandler{
		stats:   stats,
		suggest: suggest,
		perf:    perf,
		ingest:  ingest,
		sync:    sync,
		health:  health,
		live:    live,
		limiter: limiter,
		limit:   limit,
		logger:  logger,
	}
}

func (h *LotteryEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	if h.live != nil {
		e.GET("/ws/draws", h.live)
	}

	g := e.Group("/api")
	g.GET("/lotteries", h.observe("lotteries", h.Lotteries))
	g.GET("/algorithms", h.observe("algorithms", h.Algorithms))
	g.GET("/predictions/:id", h.observe("prediction", h.Prediction))

	lt := g.Group("/lotteries/:type")
	lt.GET("", h.observe("lottery", h.Lottery))
	lt.GET("/results", h.observe("results", h.Results))
	lt.GET("/results/:id", h.observe("result", h.Result))
	lt.POST("/results", h.observe("ingest", h.Ingest))
	lt.GET("/statistics", h.observe("statistics", h.Statistics))
	lt.GET("/frequencies", h.observe("frequencies", h.Frequencies))
	lt.GET("/patterns", h.observe("patterns", h.Patterns))
	lt.GET("/predictions", h.observe("predictions", h.Predictions))
	lt.GET("/performance", h.observe("performance", h.Performance))

	limited := h.limiter.Middleware("suggestions", h.limit.Capacity, h.limit.Refill)
	lt.POST("/suggestions", h.observe("suggest", h.Suggest), limited)
	lt.POST("/suggestions/all", h.observe("suggest_all", h.SuggestAll), limited)

	if h.sync != nil {
		lt.POST("/sync", h.observe("sync", h.Sync))
	}
}

func (h *LotteryEchoHandler) observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()
		return next(c)
	}
}

func (h *LotteryEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("lottery api error", applogger.String("endpoint", endpoint), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *LotteryEchoHandler) Health(c echo.Context) error {
	if h.health != nil {
		if err := h.health.Health(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", applogger.Error(err))
			return xhttp.StatusResponse(c, http.StatusServiceUnavailable, err.Error(), nil)
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *LotteryEchoHandler) Lotteries(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.AllConfigs())
}

func (h *LotteryEchoHandler) Lottery(c echo.Context) error {
	req := &models.LotteryPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "lottery", err)
	}
	cfg, err := models.ConfigFor(t)
	if err != nil {
		return h.fail(c, "lottery", err)
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *LotteryEchoHandler) Results(c echo.Context) error {
	req := &models.ResultsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "results", err)
	}
	f := domrepo.ResultFilter{Limit: req.Limit, Offset: req.Offset}
	if req.From != "" {
		if f.From, err = models.ParseDate(req.From); err != nil {
			return h.fail(c, "results", err)
		}
	}
	if req.To != "" {
		if f.To, err = models.ParseDate(req.To); err != nil {
			return h.fail(c, "results", err)
		}
	}

	page, err := h.stats.GetResults(c.Request().Context(), t, f)
	if err != nil {
		return h.fail(c, "results", err)
	}
	return xhttp.SuccessResponse(c, page)
}

func (h *LotteryEchoHandler) Result(c echo.Context) error {
	req := &models.ResultPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "result", err)
	}
	r, err := h.stats.GetResult(c.Request().Context(), t, req.ID)
	if err != nil {
		return h.fail(c, "result", err)
	}
	return xhttp.SuccessResponse(c, r)
}

func (h *LotteryEchoHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "ingest", err)
	}
	req.Type = string(t)
	r, err := req.ToResult()
	if err != nil {
		return h.fail(c, "ingest", err)
	}

	created, err := h.ingest.Ingest(c.Request().Context(), r, usecase.SourceAPI)
	if err != nil {
		return h.fail(c, "ingest", err)
	}
	r.Date = models.DateOnly(r.Date)
	res := &IngestResponse{Result: r, Created: created}
	if created {
		return xhttp.CreatedResponse(c, res)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *LotteryEchoHandler) Statistics(c echo.Context) error {
	req := &models.StatisticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "statistics", err)
	}
	st, err := h.stats.GetStatistics(c.Request().Context(), t, req.Top)
	if err != nil {
		return h.fail(c, "statistics", err)
	}
	return xhttp.CachedResponse(c, time.Minute, st)
}

func (h *LotteryEchoHandler) Frequencies(c echo.Context) error {
	req := &models.FrequenciesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "frequencies", err)
	}
	rep, err := h.stats.GetFrequencies(c.Request().Context(), t, req.Days)
	if err != nil {
		return h.fail(c, "frequencies", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *LotteryEchoHandler) Patterns(c echo.Context) error {
	req := &models.PatternsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "patterns", err)
	}
	p, err := h.stats.GetPatterns(c.Request().Context(), t, req.Limit, req.Recent)
	if err != nil {
		return h.fail(c, "patterns", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *LotteryEchoHandler) Algorithms(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.suggest.Algorithms())
}

func (h *LotteryEchoHandler) Suggest(c echo.Context) error {
	req := &models.SuggestionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "suggest", err)
	}
	target, err := optionalDate(req.TargetDate)
	if err != nil {
		return h.fail(c, "suggest", err)
	}
	s, err := h.suggest.Generate(c.Request().Context(), t, req.Algorithm, target)
	if err != nil {
		return h.fail(c, "suggest", err)
	}
	return xhttp.CreatedResponse(c, s)
}

func (h *LotteryEchoHandler) SuggestAll(c echo.Context) error {
	req := &models.SuggestAllRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "suggest_all", err)
	}
	target, err := optionalDate(req.TargetDate)
	if err != nil {
		return h.fail(c, "suggest_all", err)
	}
	set, err := h.suggest.GenerateAll(c.Request().Context(), t, target)
	if err != nil {
		return h.fail(c, "suggest_all", err)
	}
	return xhttp.CreatedResponse(c, set)
}

func (h *LotteryEchoHandler) Predictions(c echo.Context) error {
	req := &models.PredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "predictions", err)
	}
	ps, err := h.suggest.ListPredictions(c.Request().Context(), t, domrepo.PredictionFilter{
		Algorithm: req.Algorithm,
		Status:    req.Status,
		Limit:     req.Limit,
	})
	if err != nil {
		return h.fail(c, "predictions", err)
	}
	return xhttp.ListResponse(c, ps, int64(len(ps)))
}

func (h *LotteryEchoHandler) Prediction(c echo.Context) error {
	req := &models.PredictionPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.suggest.GetPrediction(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "prediction", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *LotteryEchoHandler) Performance(c echo.Context) error {
	req := &models.LotteryPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "performance", err)
	}
	perf, err := h.perf.GetPerformance(c.Request().Context(), t)
	if err != nil {
		return h.fail(c, "performance", err)
	}
	return xhttp.SuccessResponse(c, perf)
}

func (h *LotteryEchoHandler) Sync(c echo.Context) error {
	req := &models.LotteryPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := models.ParseLotteryType(req.Type)
	if err != nil {
		return h.fail(c, "sync", err)
	}
	rep, err := h.sync.RunOnce(c.Request().Context(), t)
	if err != nil {
		return h.fail(c, "sync", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return models.ParseDate(s)
}
