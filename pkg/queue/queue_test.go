package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type drawRef struct {
	LotteryType string `json:"lotteryType"`
	ID          string `json:"id"`
}

func TestParsePayload(t *testing.T) {
	raw := json.RawMessage(`{"lotteryType":"mega645","id":"01200"}`)
	got, err := ParsePayload[drawRef](raw)
	if err != nil || got.ID != "01200" {
		t.Fatalf("ParsePayload(raw) = %+v, %v", got, err)
	}

	direct := drawRef{LotteryType: "power655", ID: "00987"}
	got, err = ParsePayload[drawRef](direct)
	if err != nil || *got != direct {
		t.Fatalf("ParsePayload(value) = %+v, %v", got, err)
	}

	got, err = ParsePayload[drawRef](map[string]interface{}{"id": "7"})
	if err != nil || got.ID != "7" {
		t.Fatalf("ParsePayload(map) = %+v, %v", got, err)
	}

	if _, err := ParsePayload[drawRef]([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for mismatched payload")
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := Permanent(base)
	if !IsPermanent(err) || !errors.Is(err, base) {
		t.Fatalf("Permanent should wrap and mark %v", err)
	}
	if IsPermanent(base) || Permanent(nil) != nil {
		t.Fatal("plain errors and nil are not permanent")
	}
}

func TestRetryDelayIsLinear(t *testing.T) {
	if d := retryDelay(5*time.Second, 3); d != 15*time.Second {
		t.Fatalf("retryDelay = %v", d)
	}
	if d := retryDelay(5*time.Second, 0); d != 5*time.Second {
		t.Fatalf("retryDelay(0) = %v", d)
	}
	if ModeConsumerOnly.String() != "consumer-only" {
		t.Fatalf("mode string = %q", ModeConsumerOnly.String())
	}
}
