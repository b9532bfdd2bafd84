package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"LottoStats/pkg/util"
)

// LotteryType identifies a lottery variant.
type LotteryType string

const (
	Power655 LotteryType = "power655"
	Mega645  LotteryType = "mega645"
)

// LotteryConfig is the static descriptor of a lottery variant.
type LotteryConfig struct {
	Type           LotteryType    `json:"type"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	MaxNumber      int            `json:"maxNumber"`
	NumbersCount   int            `json:"numbersCount"`
	HasPowerNumber bool           `json:"hasPowerNumber"`
	PowerMax       int            `json:"powerMax,omitempty"`
	DrawDays       []time.Weekday `json:"drawDays"`
	Color          string         `json:"color"`
}

var configs = map[LotteryType]LotteryConfig{
	Power655: {
		Type:           Power655,
		Name:           "Power 6/55",
		Description:    "Pick 6 numbers from 1 to 55, plus a power number",
		MaxNumber:      55,
		NumbersCount:   6,
		HasPowerNumber: true,
		PowerMax:       55,
		DrawDays:       []time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
		Color:          "red",
	},
	Mega645: {
		Type:         Mega645,
		Name:         "Mega 6/45",
		Description:  "Pick 6 numbers from 1 to 45",
		MaxNumber:    45,
		NumbersCount: 6,
		DrawDays:     []time.Weekday{time.Wednesday, time.Friday, time.Sunday},
		Color:        "blue",
	},
}

// ParseLotteryType normalizes s and checks it against the known variants.
func ParseLotteryType(s string) (LotteryType, error) {
	t := LotteryType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := configs[t]; !ok {
		return "", NewNotFoundError("lottery type", s)
	}
	return t, nil
}

// ConfigFor returns the config of t.
func ConfigFor(t LotteryType) (LotteryConfig, error) {
	cfg, ok := configs[t]
	if !ok {
		return LotteryConfig{}, NewNotFoundError("lottery type", string(t))
	}
	return cfg, nil
}

// AllConfigs returns every config ordered by type.
func AllConfigs() []LotteryConfig {
	out := make([]LotteryConfig, 0, len(configs))
	for _, c := range configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// ValidateNumbers checks a main set and optional power number against the config.
func (c LotteryConfig) ValidateNumbers(nums []int, power *int) error {
	if len(nums) != c.NumbersCount {
		return NewValidationError("result", fmt.Sprintf("expected %d numbers, got %d", c.NumbersCount, len(nums)))
	}
	seen := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		if n < 1 || n > c.MaxNumber {
			return NewValidationError("result", fmt.Sprintf("number %d out of range [1,%d]", n, c.MaxNumber))
		}
		if _, dup := seen[n]; dup {
			return NewValidationError("result", fmt.Sprintf("number %d repeated", n))
		}
		seen[n] = struct{}{}
	}
	if !c.HasPowerNumber {
		if power != nil {
			return NewValidationError("powerNumber", fmt.Sprintf("%s has no power number", c.Type))
		}
		return nil
	}
	if power == nil {
		return NewValidationError("powerNumber", "power number is required")
	}
	if *power < 1 || *power > c.PowerMax {
		return NewValidationError("powerNumber", fmt.Sprintf("power number %d out of range [1,%d]", *power, c.PowerMax))
	}
	if _, dup := seen[*power]; dup {
		return NewValidationError("powerNumber", fmt.Sprintf("power number %d repeats a main number", *power))
	}
	return nil
}

// IsDrawDay reports whether a draw takes place on d's weekday.
func (c LotteryConfig) IsDrawDay(d time.Time) bool {
	for _, wd := range c.DrawDays {
		if d.Weekday() == wd {
			return true
		}
	}
	return false
}

// NextDrawDate returns the first draw date strictly after the calendar day of after.
func (c LotteryConfig) NextDrawDate(after time.Time) time.Time {
	d := DateOnly(after)
	for i := 1; i <= 7; i++ {
		next := d.AddDate(0, 0, i)
		if c.IsDrawDay(next) {
			return next
		}
	}
	return d.AddDate(0, 0, 1)
}

// LotteryResult is one historical draw.
type LotteryResult struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	Result      []int       `json:"result"`
	PowerNumber *int        `json:"powerNumber,omitempty"`
	Jackpot1    *float64    `json:"jackpot1,omitempty"`
	Jackpot2    *float64    `json:"jackpot2,omitempty"`
	ProcessTime *time.Time  `json:"processTime,omitempty"`
	LotteryType LotteryType `json:"lotteryType,omitempty"`
}

// Validate checks r against cfg. A lottery type tag, when set, must match cfg.
func (r LotteryResult) Validate(cfg LotteryConfig) error {
	if strings.TrimSpace(r.ID) == "" {
		return NewValidationError("id", "id is required")
	}
	if r.Date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	if r.LotteryType != "" && r.LotteryType != cfg.Type {
		return NewValidationError("lotteryType", fmt.Sprintf("result tagged %s, expected %s", r.LotteryType, cfg.Type))
	}
	if r.Jackpot1 != nil && *r.Jackpot1 < 0 {
		return NewValidationError("jackpot1", "jackpot must not be negative")
	}
	if r.Jackpot2 != nil && *r.Jackpot2 < 0 {
		return NewValidationError("jackpot2", "jackpot must not be negative")
	}
	return cfg.ValidateNumbers(r.Result, r.PowerNumber)
}

// ValidateResult resolves the config from the result's own tag and validates against it.
func ValidateResult(r LotteryResult) error {
	if r.LotteryType == "" {
		return NewValidationError("lotteryType", "lottery type is required")
	}
	cfg, err := ConfigFor(r.LotteryType)
	if err != nil {
		return err
	}
	return r.Validate(cfg)
}

// SortedNumbers returns a sorted copy of the main numbers.
func (r LotteryResult) SortedNumbers() []int {
	out := append([]int(nil), r.Result...)
	sort.Ints(out)
	return out
}

// Contains reports whether n is one of the main numbers.
func (r LotteryResult) Contains(n int) bool {
	for _, v := range r.Result {
		if v == n {
			return true
		}
	}
	return false
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time { return util.DateOnly(t) }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
