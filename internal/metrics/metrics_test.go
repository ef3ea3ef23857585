package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecordInference(t *testing.T) {
	before := TotalTokens()
	RecordInference(5, 100*time.Millisecond)
	if got := TotalTokens(); got != before+5 {
		t.Errorf("TotalTokens() = %d, want %d", got, before+5)
	}
}

func TestRecordHelpers(t *testing.T) {
	// Recording must never panic, whatever the values.
	RecordForward(0, 0)
	RecordForward(512, time.Second)
	RecordSamplingTemperature(0)
	RecordSamplingTemperature(1.5)
	RecordLoad(time.Millisecond, nil)
	RecordLoad(0, errors.New("missing config"))
	RecordGenerateRequest("ok")
	RecordGenerateRequest("error")
}
