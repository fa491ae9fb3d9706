package quotes

import (
	"testing"
	"time"
)

func TestTokenBucketAllowsUpToBurst(t *testing.T) {
	b := newTokenBucket(10, time.Second, 3, 100, time.Minute)

	for i := 0; i < 3; i++ {
		if !b.Allow() {
			t.Fatalf("Allow() call %d = false, want true within burst", i+1)
		}
	}
	if b.Allow() {
		t.Error("Allow() = true after exhausting the burst, want false")
	}
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	b := newTokenBucket(100, 100*time.Millisecond, 1, 100, time.Minute)

	if !b.Allow() {
		t.Fatal("Allow() first call = false, want true")
	}
	if b.Allow() {
		t.Fatal("Allow() immediate second call = true, want false (bucket exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !b.Allow() {
		t.Error("Allow() after refill window = false, want true")
	}
}

func TestTokenBucketPausesAfterConsecutiveFailures(t *testing.T) {
	b := newTokenBucket(10, time.Second, 5, 3, time.Hour)

	b.RecordFailure()
	b.RecordFailure()
	if !b.Allow() {
		t.Fatal("Allow() before hitting maxConsecutive = false, want true")
	}

	b.RecordFailure()
	if b.Allow() {
		t.Error("Allow() after hitting maxConsecutive failures = true, want false (should be paused)")
	}
}

func TestTokenBucketRecordSuccessResetsConsecutiveCount(t *testing.T) {
	b := newTokenBucket(10, time.Second, 5, 2, time.Hour)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	if !b.Allow() {
		t.Error("Allow() after RecordSuccess reset the counter = false, want true (only one failure since reset)")
	}
}
