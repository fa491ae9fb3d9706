package cache

import "testing"

func TestKeyHelpersNamespaceByPrefix(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sentiment debounce", SentimentDebounceKey("analysis"), "sentiment:debounce:analysis"},
		{"fill sync high water", FillSyncHighWaterKey("0xabc"), "fillsync:highwater:0xabc"},
		{"fill sync lock", FillSyncLockKey("0xabc"), "fillsync:lock:0xabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestKeyHelpersAreDistinctAcrossAccounts(t *testing.T) {
	if FillSyncLockKey("acct-a") == FillSyncLockKey("acct-b") {
		t.Error("FillSyncLockKey produced the same key for two different accounts")
	}
	if FillSyncHighWaterKey("acct-a") == FillSyncLockKey("acct-a") {
		t.Error("FillSyncHighWaterKey and FillSyncLockKey collided for the same account")
	}
}
