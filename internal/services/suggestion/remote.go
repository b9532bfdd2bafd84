package suggestion

import (
	"context"
	"fmt"
	"time"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/pkg/util"
)

// remoteHistoryLimit caps the draws sent to the model service per call.
const remoteHistoryLimit = 300

// RemoteStrategy delegates to an external model service over JSON.
type RemoteStrategy struct {
	settings
	base     *HTTPServiceBase
	attempts int
}

func NewRemoteStrategy(baseURL string, timeout time.Duration, attempts int, opts ...Option) *RemoteStrategy {
	return &RemoteStrategy{
		settings: newSettings(opts),
		base:     NewHTTPServiceBase(baseURL, timeout),
		attempts: attempts,
	}
}

type remoteDraw struct {
	Date        string `json:"date"`
	Numbers     []int  `json:"numbers"`
	PowerNumber *int   `json:"powerNumber,omitempty"`
}

type remoteReq struct {
	LotteryType    models.LotteryType `json:"lotteryType"`
	MaxNumber      int                `json:"maxNumber"`
	NumbersCount   int                `json:"numbersCount"`
	HasPowerNumber bool               `json:"hasPowerNumber"`
	PowerMax       int                `json:"powerMax,omitempty"`
	History        []remoteDraw       `json:"history"`
}

type remoteResp struct {
	Numbers     []int   `json:"numbers"`
	PowerNumber *int    `json:"powerNumber"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) Description() string { return "External model service" }

func (s *RemoteStrategy) Suggest(ctx context.Context, cfg models.LotteryConfig, history []models.LotteryResult) (models.NumberSuggestionResult, error) {
	if err := requireHistory(s.Name(), cfg, history); err != nil {
		return models.NumberSuggestionResult{}, err
	}
	req := remoteReq{
		LotteryType:    cfg.Type,
		MaxNumber:      cfg.MaxNumber,
		NumbersCount:   cfg.NumbersCount,
		HasPowerNumber: cfg.HasPowerNumber,
		PowerMax:       cfg.PowerMax,
	}
	for _, r := range recent(history, remoteHistoryLimit) {
		req.History = append(req.History, remoteDraw{
			Date:        util.FormatDate(r.Date),
			Numbers:     r.Result,
			PowerNumber: r.PowerNumber,
		})
	}

	var resp remoteResp
	if err := s.base.PostJSONWithRetry(ctx, "/suggest", req, &resp, s.attempts); err != nil {
		return models.NumberSuggestionResult{}, fmt.Errorf("remote suggest: %w", err)
	}
	reason := resp.Reasoning
	if reason == "" {
		reason = "External model prediction"
	}
	return finish(cfg, s.Name(), resp.Numbers, resp.PowerNumber, resp.Confidence, reason, s.now())
}

var _ domsvc.SuggestionStrategy = (*RemoteStrategy)(nil)
