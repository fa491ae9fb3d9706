package fillsync

import (
	"testing"
	"time"

	"binance-trading-bot/internal/database"
)

func TestStartTimeWithPriorSuccess(t *testing.T) {
	e := &Scheduler{}
	last := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	status := &database.SyncStatus{LastSuccessTime: &last}

	got := e.startTime(status)
	want := last.Add(-overlapMargin)
	if !got.Equal(want) {
		t.Errorf("startTime() = %v, want %v", got, want)
	}
}

func TestStartTimeWithoutPriorSuccess(t *testing.T) {
	e := &Scheduler{}
	status := &database.SyncStatus{}

	before := time.Now().Add(-fullHistoryWindow)
	got := e.startTime(status)
	after := time.Now().Add(-fullHistoryWindow)

	if got.Before(before.Add(-time.Second)) || got.After(after.Add(time.Second)) {
		t.Errorf("startTime() = %v, want roughly %v", got, before)
	}
}
