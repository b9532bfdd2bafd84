package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-10-10",
		"2024-10-10T10:10:10Z",
		strconv.FormatInt(time.Date(2024, 10, 10, 18, 0, 0, 0, time.UTC).Unix(), 10),
	} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("%q: expected ok", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v, want %v", s, got, want)
		}
	}
	if _, ok := ParseDate("10/10/2024"); ok {
		t.Fatalf("expected failure for unsupported layout")
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 2, 27, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 3 {
		t.Fatalf("DaysBetween = %d, want 3", got)
	}
}

func TestSplitListAndParseInt(t *testing.T) {
	got := SplitList(" mega645, ,power655 ,")
	if len(got) != 2 || got[0] != "mega645" || got[1] != "power655" {
		t.Fatalf("SplitList = %v", got)
	}
	if ParseIntDefault("x", 7) != 7 || ParseIntDefault(" 42", 0) != 42 {
		t.Fatalf("ParseIntDefault mismatch")
	}
}
