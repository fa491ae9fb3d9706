package database

import (
	"encoding/json"
	"time"

	"binance-trading-bot/internal/apperr"
)

type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
	ActionHold TradeAction = "hold"
)

type TradeStatus string

const (
	TradeWaiting    TradeStatus = "waiting"
	TradeActive     TradeStatus = "active"
	TradeProfitHit  TradeStatus = "profit_hit"
	TradeStopHit    TradeStatus = "stop_hit"
	TradeAIClosed   TradeStatus = "ai_closed"
	TradeUserClosed TradeStatus = "user_closed"
)

// IsOpen reports whether status is one of the non-closed states.
func (s TradeStatus) IsOpen() bool {
	return s == TradeWaiting || s == TradeActive
}

// IsClosed reports whether status is a terminal state.
func (s TradeStatus) IsClosed() bool {
	switch s {
	case TradeProfitHit, TradeStopHit, TradeAIClosed, TradeUserClosed:
		return true
	default:
		return false
	}
}

type EntryStrategy string

const (
	StrategyBreakout    EntryStrategy = "breakout"
	StrategyTraditional EntryStrategy = "pullback"
)

type UpdateType string

const (
	UpdateMaintain         UpdateType = "maintain"
	UpdateModify           UpdateType = "modify"
	UpdateTriggerHit       UpdateType = "trigger_hit"
	UpdateStatusCorrection UpdateType = "status_correction"
	UpdateOrphanCleanup    UpdateType = "orphan_cleanup"
)

// Analysis is an LLM verdict about a chart snapshot for one (ticker, timeframe).
type Analysis struct {
	ID                int64
	Ticker            string
	Timeframe         string
	AnalysisTimestamp time.Time
	Confidence        float64
	Action            TradeAction
	EntryPrice        *float64
	TargetPrice       *float64
	StopLoss          *float64
	Reasoning         string
	DetailedAnalysis  json.RawMessage
	ContextAssessment json.RawMessage
	ImageHash         string
	ModelUsed         string
	DeletedAt         *time.Time
	CreatedAt         time.Time
}

// Trade is a position derived from a specific Analysis.
type Trade struct {
	ID                       int64
	AnalysisID               int64
	Ticker                   string
	Timeframe                string
	Action                   TradeAction
	EntryPrice               float64
	TargetPrice              float64
	StopLoss                 float64
	EntryCondition           string
	EntryStrategy            EntryStrategy
	Status                   TradeStatus
	TriggerHitTime           *time.Time
	TriggerHitPrice          *float64
	CurrentPrice             *float64
	UnrealizedPnL            *float64
	RealizedPnL              *float64
	CloseTime                *time.Time
	ClosePrice               *float64
	CloseReason              string
	CloseDetails             json.RawMessage
	OriginalAnalysisSnapshot json.RawMessage
	OriginalContextSnapshot  json.RawMessage
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// TradeUpdate is an immutable audit entry attached to a Trade.
type TradeUpdate struct {
	ID              int64
	TradeID         int64
	UpdateTimestamp time.Time
	Price           *float64
	UpdateType      UpdateType
	Payload         json.RawMessage
	Notes           string
}

// MarketSnapshot is one point-in-time sample of the whole crypto market.
type MarketSnapshot struct {
	ID                int64
	SnapshotTimestamp time.Time
	BTCPrice          float64
	ETHPrice          float64
	BTCMarketCap      float64
	ETHMarketCap      float64
	TotalMarketCap    float64
	BTCDominance      float64
	AltStrengthRatio  float64
	DataSource        string
	DataQualityScore  float64
}

// Validate enforces the MarketSnapshot invariants. A record that fails
// this must not be persisted.
func (s *MarketSnapshot) Validate() error {
	switch {
	case s.BTCPrice <= 0:
		return apperr.New(apperr.Validation, "SNAPSHOT_INVALID", "btc_price must be > 0")
	case s.ETHPrice <= 0:
		return apperr.New(apperr.Validation, "SNAPSHOT_INVALID", "eth_price must be > 0")
	case s.BTCMarketCap <= 0:
		return apperr.New(apperr.Validation, "SNAPSHOT_INVALID", "btc_market_cap must be > 0")
	case s.ETHMarketCap <= 0:
		return apperr.New(apperr.Validation, "SNAPSHOT_INVALID", "eth_market_cap must be > 0")
	case s.BTCDominance <= 0 || s.BTCDominance >= 100:
		return apperr.New(apperr.Validation, "SNAPSHOT_INVALID", "btc_dominance must be in (0, 100)")
	case s.TotalMarketCap < s.BTCMarketCap+s.ETHMarketCap:
		return apperr.New(apperr.Validation, "SNAPSHOT_INVALID", "total_market_cap must be >= btc_market_cap + eth_market_cap")
	}
	return nil
}

type MarketRegime string

const (
	RegimeBTCSeason  MarketRegime = "BTC_SEASON"
	RegimeETHSeason  MarketRegime = "ETH_SEASON"
	RegimeAltSeason  MarketRegime = "ALT_SEASON"
	RegimeTransition MarketRegime = "TRANSITION"
	RegimeBear       MarketRegime = "BEAR"
)

type TradePermission string

const (
	PermissionNoTrade    TradePermission = "NO_TRADE"
	PermissionSelective  TradePermission = "SELECTIVE"
	PermissionAggressive TradePermission = "AGGRESSIVE"
)

type TrendDirection string

const (
	TrendUp       TrendDirection = "UP"
	TrendDown     TrendDirection = "DOWN"
	TrendSideways TrendDirection = "SIDEWAYS"
)

// AssetTrend is one asset's trend reading within a SentimentVerdict.
type AssetTrend struct {
	Direction TrendDirection
	Strength  float64
}

// SentimentVerdict is the latest AI verdict over the sentiment window.
type SentimentVerdict struct {
	ID                int64
	AnalysisTimestamp time.Time
	OverallConfidence float64
	MarketRegime      MarketRegime
	TradePermission   TradePermission
	BTC               AssetTrend
	ETH               AssetTrend
	Alt               AssetTrend
	ChartBTCPrice     []byte
	ChartETHPrice     []byte
	ChartBTCDominance []byte
	ChartAltStrength  []byte
	ChartCombined     []byte
	ModelUsed         string
	ProcessingTimeMs  int64
}

type SystemStatus string

const (
	StatusInitializing SystemStatus = "INITIALIZING"
	StatusActive       SystemStatus = "ACTIVE"
	StatusDegraded     SystemStatus = "DEGRADED"
	StatusHalted       SystemStatus = "HALTED"
)

// SystemState is the singleton process-wide coordination record for
// the sentiment engine. Mutated only by the scanner loop.
type SystemState struct {
	BootstrapCompleted          bool
	BootstrapDataPoints         int
	ScannerRunning              bool
	ScanIntervalHours           float64
	LastSuccessfulScan          *time.Time
	LastFailedScan              *time.Time
	ConsecutiveFailures         int
	ConsecutiveAnalysisFailures int
	SystemStatus                SystemStatus
	TotalScansCompleted         int64
	TotalAnalysesCompleted      int64
}

type SyncState string

const (
	SyncIdle      SyncState = "IDLE"
	SyncRunning   SyncState = "RUNNING"
	SyncCompleted SyncState = "COMPLETED"
	SyncFailed    SyncState = "FAILED"
)

// SyncStatus is a per-(account_type, wallet) record for the fill-sync engine.
type SyncStatus struct {
	AccountType     string
	Wallet          string
	Status          SyncState
	LastSuccessTime *time.Time
	Metadata        json.RawMessage
}

// Fill is an exchange trade record, unique by hash.
type Fill struct {
	Hash        string
	TID         int64
	TimeMs      int64
	Coin        string
	Side        string
	Size        float64
	Price       float64
	AccountType string
	Wallet      string
}
