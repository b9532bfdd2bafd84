package models

// NumberPattern describes the shape of a single draw.
type NumberPattern struct {
	DrawID          string  `json:"drawId"`
	Numbers         []int   `json:"numbers"`
	ConsecutiveRuns [][]int `json:"consecutiveRuns"`
	EvenCount       int     `json:"evenCount"`
	OddCount        int     `json:"oddCount"`
	LowCount        int     `json:"lowCount"`
	HighCount       int     `json:"highCount"`
	Sum             int     `json:"sum"`
	Gaps            []int   `json:"gaps"`
	Repeats         []int   `json:"repeats"`
}

// SumRange holds summary statistics of draw sums.
type SumRange struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// NumberGap tracks how many draws pass between appearances of a number.
// CurrentGap is the number of draws since it was last seen (TotalDraws if never).
type NumberGap struct {
	Number     int     `json:"number"`
	CurrentGap int     `json:"currentGap"`
	MaxGap     int     `json:"maxGap"`
	AverageGap float64 `json:"averageGap"`
}

// AdvancedPattern aggregates NumberPattern metrics over a result set.
type AdvancedPattern struct {
	LotteryType            LotteryType     `json:"lotteryType"`
	TotalDraws             int             `json:"totalDraws"`
	ConsecutiveRate        float64         `json:"consecutiveRate"`
	AverageConsecutiveRuns float64         `json:"averageConsecutiveRuns"`
	EvenOddDistribution    map[string]int  `json:"evenOddDistribution"`
	LowHighDistribution    map[string]int  `json:"lowHighDistribution"`
	SumRange               SumRange        `json:"sumRange"`
	AverageRepeats         float64         `json:"averageRepeats"`
	NumberGaps             []NumberGap     `json:"numberGaps"`
	Recent                 []NumberPattern `json:"recent,omitempty"`
}
