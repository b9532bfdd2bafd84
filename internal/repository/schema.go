package repository

import "fmt"

const (
	ResultsTable     = "lottery_results"
	PredictionsTable = "predictions"
)

// Schema returns the DDL for the result and prediction tables in database.
// Both tables are ReplacingMergeTree, so rewriting a row with a newer version replaces it.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    id String,
    lottery_type LowCardinality(String),
    draw_date Date,
    numbers Array(UInt16),
    power_number Nullable(UInt8),
    jackpot1 Nullable(Float64),
    jackpot2 Nullable(Float64),
    process_time Nullable(DateTime),
    ingested_at DateTime64(3)
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (lottery_type, draw_date, id)`, database, ResultsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    id String,
    lottery_type LowCardinality(String),
    algorithm LowCardinality(String),
    target_date Date,
    predicted_numbers Array(UInt16),
    predicted_power Nullable(UInt8),
    confidence Float64,
    created_at DateTime64(3),
    actual_numbers Array(UInt16),
    actual_power Nullable(UInt8),
    matches Nullable(UInt8),
    power_matched Nullable(UInt8),
    accuracy Nullable(Float64),
    draw_id String,
    evaluated_at Nullable(DateTime64(3)),
    updated_at DateTime64(3)
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY id`, database, PredictionsTable),
	}
}

func toUint16s(nums []int) []uint16 {
	out := make([]uint16, len(nums))
	for i, n := range nums {
		out[i] = uint16(n)
	}
	return out
}

func toInts(nums []uint16) []int {
	out := make([]int, len(nums))
	for i, n := range nums {
		out[i] = int(n)
	}
	return out
}

func toUint8Ptr(v *int) *uint8 {
	if v == nil {
		return nil
	}
	u := uint8(*v)
	return &u
}

func fromUint8Ptr(v *uint8) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
