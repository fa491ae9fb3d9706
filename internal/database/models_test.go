package database

import (
	"testing"

	"binance-trading-bot/internal/apperr"
)

func validSnapshot() *MarketSnapshot {
	return &MarketSnapshot{
		BTCPrice:         60000,
		ETHPrice:         3000,
		BTCMarketCap:     1_200_000_000_000,
		ETHMarketCap:     400_000_000_000,
		TotalMarketCap:   2_000_000_000_000,
		BTCDominance:     55,
		AltStrengthRatio: 0.2,
	}
}

func TestMarketSnapshotValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MarketSnapshot)
		wantErr bool
	}{
		{"valid snapshot passes", func(s *MarketSnapshot) {}, false},
		{"zero btc price fails", func(s *MarketSnapshot) { s.BTCPrice = 0 }, true},
		{"negative eth price fails", func(s *MarketSnapshot) { s.ETHPrice = -1 }, true},
		{"zero btc market cap fails", func(s *MarketSnapshot) { s.BTCMarketCap = 0 }, true},
		{"zero eth market cap fails", func(s *MarketSnapshot) { s.ETHMarketCap = 0 }, true},
		{"dominance at 0 fails", func(s *MarketSnapshot) { s.BTCDominance = 0 }, true},
		{"dominance at 100 fails", func(s *MarketSnapshot) { s.BTCDominance = 100 }, true},
		{"dominance of 99.9 passes", func(s *MarketSnapshot) { s.BTCDominance = 99.9 }, false},
		{"total market cap less than btc+eth fails", func(s *MarketSnapshot) { s.TotalMarketCap = s.BTCMarketCap }, true},
		{"total market cap exactly btc+eth passes", func(s *MarketSnapshot) { s.TotalMarketCap = s.BTCMarketCap + s.ETHMarketCap }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(snap)
			err := snap.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate() = nil, want an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.wantErr && !apperr.Is(err, apperr.Validation) {
				t.Errorf("Validate() error kind = %v, want apperr.Validation", err)
			}
		})
	}
}

func TestTradeStatusIsOpenIsClosed(t *testing.T) {
	tests := []struct {
		status     TradeStatus
		wantOpen   bool
		wantClosed bool
	}{
		{TradeWaiting, true, false},
		{TradeActive, true, false},
		{TradeProfitHit, false, true},
		{TradeStopHit, false, true},
		{TradeAIClosed, false, true},
		{TradeUserClosed, false, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsOpen(); got != tt.wantOpen {
			t.Errorf("%s.IsOpen() = %v, want %v", tt.status, got, tt.wantOpen)
		}
		if got := tt.status.IsClosed(); got != tt.wantClosed {
			t.Errorf("%s.IsClosed() = %v, want %v", tt.status, got, tt.wantClosed)
		}
	}
}
