package models

import (
	"time"

	"LottoStats/pkg/util"
)

// Requests for the lottery HTTP endpoints. Lottery types are resolved by the handler
// so an unknown type is a 404 rather than a validation failure.

type LotteryPathRequest struct {
	Type string `param:"type" validate:"required"`
}

type ResultsRequest struct {
	Type   string `param:"type" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
	Offset int    `query:"offset" json:"offset" validate:"gte=0"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type ResultPathRequest struct {
	Type string `param:"type" validate:"required"`
	ID   string `param:"id" validate:"required"`
}

type StatisticsRequest struct {
	Type string `param:"type" validate:"required"`
	Top  int    `query:"top" json:"top" default:"10" validate:"gte=1,lte=55"`
}

type FrequenciesRequest struct {
	Type string `param:"type" validate:"required"`
	Days int    `query:"days" json:"days" validate:"gte=0,lte=3650"`
}

type PatternsRequest struct {
	Type   string `param:"type" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=5000"`
	Recent int    `query:"recent" json:"recent" default:"10" validate:"gte=0,lte=100"`
}

type SuggestionRequest struct {
	Type       string `param:"type" validate:"required"`
	Algorithm  string `json:"algorithm" default:"frequency" validate:"required"`
	TargetDate string `json:"targetDate" validate:"omitempty,datetime=2006-01-02"`
}

type SuggestAllRequest struct {
	Type       string `param:"type" validate:"required"`
	TargetDate string `json:"targetDate" validate:"omitempty,datetime=2006-01-02"`
}

type PredictionsRequest struct {
	Type      string `param:"type" validate:"required"`
	Algorithm string `query:"algorithm" json:"algorithm"`
	Status    string `query:"status" json:"status" validate:"omitempty,oneof=pending evaluated"`
	Limit     int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type PredictionPathRequest struct {
	ID string `param:"id" validate:"required"`
}

// IngestRequest is a manually entered draw.
type IngestRequest struct {
	Type        string     `param:"type" validate:"required"`
	ID          string     `json:"id" validate:"required"`
	Date        string     `json:"date" validate:"required,datetime=2006-01-02"`
	Result      []int      `json:"result" validate:"required,min=1,unique,dive,gte=1"`
	PowerNumber *int       `json:"powerNumber"`
	Jackpot1    *float64   `json:"jackpot1" validate:"omitempty,gte=0"`
	Jackpot2    *float64   `json:"jackpot2" validate:"omitempty,gte=0"`
	ProcessTime *time.Time `json:"processTime"`
}

// ToResult converts the request into a tagged LotteryResult. Range checks are left to Validate.
func (r IngestRequest) ToResult() (LotteryResult, error) {
	d, err := ParseDate(r.Date)
	if err != nil {
		return LotteryResult{}, err
	}
	return LotteryResult{
		ID:          r.ID,
		Date:        d,
		Result:      append([]int(nil), r.Result...),
		PowerNumber: r.PowerNumber,
		Jackpot1:    r.Jackpot1,
		Jackpot2:    r.Jackpot2,
		ProcessTime: r.ProcessTime,
		LotteryType: LotteryType(r.Type),
	}, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, ok := util.ParseDate(s)
	if !ok {
		return time.Time{}, NewValidationError("date", "expected YYYY-MM-DD")
	}
	return d, nil
}
