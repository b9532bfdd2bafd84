package models

import "time"

// NumberFrequency is how often one number was drawn in a result set.
// Percentage is the share of all drawn main numbers, so a complete distribution sums to ~100.
// DrawRate is the fraction of draws that contained the number.
type NumberFrequency struct {
	Number     int        `json:"number"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
	DrawRate   float64    `json:"drawRate"`
	LastSeen   *time.Time `json:"lastSeen,omitempty"`
}

// TrendSnapshot summarizes the draws of one trailing window.
type TrendSnapshot struct {
	Days         int               `json:"days"`
	From         time.Time         `json:"from"`
	To           time.Time         `json:"to"`
	TotalDraws   int               `json:"totalDraws"`
	HotNumbers   []NumberFrequency `json:"hotNumbers"`
	ColdNumbers  []NumberFrequency `json:"coldNumbers"`
	Distribution []NumberFrequency `json:"distribution"`
}

// Trends holds the 30/60/90 day snapshots, all anchored on the same reference date.
type Trends struct {
	Last30Days TrendSnapshot `json:"last30Days"`
	Last60Days TrendSnapshot `json:"last60Days"`
	Last90Days TrendSnapshot `json:"last90Days"`
}

// LotteryStatistics aggregates a result set.
type LotteryStatistics struct {
	LotteryType        LotteryType       `json:"lotteryType"`
	TotalDraws         int               `json:"totalDraws"`
	From               time.Time         `json:"from"`
	To                 time.Time         `json:"to"`
	MostFrequent       []NumberFrequency `json:"mostFrequent"`
	LeastFrequent      []NumberFrequency `json:"leastFrequent"`
	NumberDistribution []NumberFrequency `json:"numberDistribution"`
	PowerDistribution  []NumberFrequency `json:"powerDistribution,omitempty"`
	Trends             Trends            `json:"trends"`
	GeneratedAt        time.Time         `json:"generatedAt"`
}

// FrequencyReport is the distribution over a trailing window, or over all history when Days is 0.
type FrequencyReport struct {
	LotteryType LotteryType       `json:"lotteryType"`
	Days        int               `json:"days"`
	TotalDraws  int               `json:"totalDraws"`
	Numbers     []NumberFrequency `json:"numbers"`
	Power       []NumberFrequency `json:"power,omitempty"`
}

// ResultPage is one page of stored results, newest first.
type ResultPage struct {
	Items  []LotteryResult `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
