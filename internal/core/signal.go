// internal/core/signal.go
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Recommendation is the validation verdict on an alert, ordered from
// Avoid (0) to StrongBuy (5).
type Recommendation int

const (
	RecommendAvoid Recommendation = iota
	RecommendCaution
	RecommendHold
	RecommendWeakBuy
	RecommendBuy
	RecommendStrongBuy
)

var recommendationNames = [...]string{"Avoid", "Caution", "Hold", "WeakBuy", "Buy", "StrongBuy"}

func (r Recommendation) String() string {
	if r < RecommendAvoid || r > RecommendStrongBuy {
		return "Unknown"
	}
	return recommendationNames[r]
}

// MarshalJSON encodes the recommendation by name.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the recommendation name.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range recommendationNames {
		if n == name {
			*r = Recommendation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown recommendation %q", name)
}

// DecisionLabel is the final directional call.
type DecisionLabel string

const (
	DecisionStrongBuy  DecisionLabel = "STRONG_BUY"
	DecisionBuy        DecisionLabel = "BUY"
	DecisionWeakBuy    DecisionLabel = "WEAK_BUY"
	DecisionHold       DecisionLabel = "HOLD"
	DecisionWeakSell   DecisionLabel = "WEAK_SELL"
	DecisionSell       DecisionLabel = "SELL"
	DecisionStrongSell DecisionLabel = "STRONG_SELL"
)

// IsActionable reports whether the decision asks for a new position.
func (d DecisionLabel) IsActionable() bool {
	return d == DecisionStrongBuy || d == DecisionBuy
}

// RiskLevel grades the decision's risk
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// PatternDirection is the bias implied by a chart pattern
type PatternDirection string

const (
	Bullish PatternDirection = "Bullish"
	Bearish PatternDirection = "Bearish"
	Neutral PatternDirection = "Neutral"
)

// SignalFeatures is the flat feature record built from an alert and its
// market snapshots. It is never modified after extraction.
type SignalFeatures struct {
	SignalID   string     `json:"signal_id"`
	Strike     int        `json:"strike"`
	OptionType OptionType `json:"option_type"`
	Action     string     `json:"action"`
	Timestamp  time.Time  `json:"timestamp"`

	UnderlyingPrice  float64 `json:"underlying_price"`
	UnderlyingChange float64 `json:"underlying_change"`
	VIX              float64 `json:"vix"`
	MarketTrend      string  `json:"market_trend"`
	Volume           int64   `json:"volume"`

	RSI                   float64 `json:"rsi"`
	MACD                  float64 `json:"macd"`
	BollingerBandPosition float64 `json:"bollinger_band_position"`
	SMA20                 float64 `json:"sma20"`
	SMA50                 float64 `json:"sma50"`

	HourOfDay    int          `json:"hour_of_day"`
	DayOfWeek    time.Weekday `json:"day_of_week"`
	TimeToExpiry float64      `json:"time_to_expiry"` // days

	HistoricalWinRate   float64 `json:"historical_win_rate"`
	HistoricalAvgReturn float64 `json:"historical_avg_return"`
	RecentPerformance   float64 `json:"recent_performance"`
	HistoricalTrades    int     `json:"historical_trades"`

	MarketRegime     string `json:"market_regime"`
	VolatilityRegime string `json:"volatility_regime"`
}

// ValidationScores holds the sub-scores behind the composite confidence.
type ValidationScores struct {
	Quality           float64 `json:"quality"`
	QualityConfidence float64 `json:"quality_confidence"`
	Outcome           float64 `json:"outcome"`
	OutcomeConfidence float64 `json:"outcome_confidence"`
	MarketCondition   float64 `json:"market_condition"`
	Timing            float64 `json:"timing"`
	Risk              float64 `json:"risk"`
	Pattern           float64 `json:"pattern"`
	Sentiment         float64 `json:"sentiment"`
	EnsembleAgreement float64 `json:"ensemble_agreement"`
}

// MarketContext describes the market at signal time.
type MarketContext struct {
	Trend           string  `json:"trend"`
	VolatilityLevel string  `json:"volatility_level"`
	LiquidityLevel  string  `json:"liquidity_level"`
	MarketHours     string  `json:"market_hours"`
	UnderlyingPrice float64 `json:"underlying_price"`
	VIX             float64 `json:"vix"`
	Regime          string  `json:"regime"`
}

// PerformanceContext is the recent track record of the signal identifier.
type PerformanceContext struct {
	RecentWinRate float64    `json:"recent_win_rate"`
	RecentAvgPnL  float64    `json:"recent_avg_pnl"`
	TotalTrades   int        `json:"total_trades"`
	LastTradeDate *time.Time `json:"last_trade_date,omitempty"`
}

// RiskAssessment breaks the risk sub-score into its drivers. Scores are
// 0-100 where higher OverallRiskScore means lower risk.
type RiskAssessment struct {
	OverallRiskScore      float64   `json:"overall_risk_score"`
	VolatilityRisk        float64   `json:"volatility_risk"`
	LiquidityRisk         float64   `json:"liquidity_risk"`
	TimingRisk            float64   `json:"timing_risk"`
	MarketRisk            float64   `json:"market_risk"`
	RiskFactors           []string  `json:"risk_factors"`
	RiskLevel             RiskLevel `json:"risk_level"`
	SuggestedPositionSize float64   `json:"suggested_position_size"`
}

// DetectedPattern is a chart pattern found in recent candles.
type DetectedPattern struct {
	Name              string             `json:"name"`
	Confidence        float64            `json:"confidence"`
	Direction         PatternDirection   `json:"direction"`
	ExpectedMagnitude float64            `json:"expected_magnitude"`
	ExpectedDuration  time.Duration      `json:"expected_duration"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
}

// EnhancedSignal is the scored form of an alert.
type EnhancedSignal struct {
	ID              string             `json:"id"`
	Alert           Alert              `json:"alert"`
	Timestamp       time.Time          `json:"timestamp"`
	SignalID        string             `json:"signal_id"`
	ConfidenceScore float64            `json:"confidence_score"`
	Recommendation  Recommendation     `json:"recommendation"`
	Scores          ValidationScores   `json:"scores"`
	Features        SignalFeatures     `json:"features"`
	MarketContext   MarketContext      `json:"market_context"`
	Performance     PerformanceContext `json:"performance"`
	Patterns        []DetectedPattern  `json:"patterns"`
	SentimentScore  float64            `json:"sentiment_score"`
	AdaptiveWeight  float64            `json:"adaptive_weight"`
	Validated       bool               `json:"validated"`
	Risk            RiskAssessment     `json:"risk"`
	Error           string             `json:"error,omitempty"`
	ProcessingTime  time.Duration      `json:"processing_time"`
}

// SentimentItem is one scored text or factor inside a source.
type SentimentItem struct {
	Text       string             `json:"text"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Keywords   []string           `json:"keywords,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Labels     map[string]string  `json:"labels,omitempty"`
}

// SourceResult is the output of a single sentiment source.
type SourceResult struct {
	Score      float64         `json:"score"`
	Confidence float64         `json:"confidence"`
	ItemCount  int             `json:"item_count"`
	Items      []SentimentItem `json:"items,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// SentimentResult is the composite market sentiment for a symbol.
type SentimentResult struct {
	Symbol     string                  `json:"symbol"`
	Timestamp  time.Time               `json:"timestamp"`
	Score      float64                 `json:"score"`
	Direction  string                  `json:"direction"`
	Confidence float64                 `json:"confidence"`
	Sources    map[string]SourceResult `json:"sources"`
	Insights   []string                `json:"insights"`
	Error      string                  `json:"error,omitempty"`
}

// WeightResult is the adaptive weight for one signal computation.
type WeightResult struct {
	SignalID       string             `json:"signal_id"`
	Timestamp      time.Time          `json:"timestamp"`
	BaseWeight     float64            `json:"base_weight"`
	AdaptiveWeight float64            `json:"adaptive_weight"`
	Components     map[string]float64 `json:"components"`
	Reasoning      string             `json:"reasoning"`
}

// DecisionFactor is one weighted contributor to the decision score.
type DecisionFactor struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// TradingDecision is the final output for an alert.
type TradingDecision struct {
	Timestamp             time.Time        `json:"timestamp"`
	SignalID              string           `json:"signal_id"`
	Decision              DecisionLabel    `json:"decision"`
	Confidence            float64          `json:"confidence"`
	SuggestedPositionSize float64          `json:"suggested_position_size"`
	RiskLevel             RiskLevel        `json:"risk_level"`
	Factors               []DecisionFactor `json:"factors"`
}

// Report is the narrative justification of a decision.
type Report struct {
	GeneratedAt        time.Time `json:"generated_at"`
	SignalID           string    `json:"signal_id"`
	OverallAssessment  string    `json:"overall_assessment"`
	KeyStrengths       []string  `json:"key_strengths"`
	KeyWeaknesses      []string  `json:"key_weaknesses"`
	Recommendations    []string  `json:"recommendations"`
	RiskConsiderations []string  `json:"risk_considerations"`
	MarketContext      []string  `json:"market_context"`
	Technical          []string  `json:"technical"`
	Timeframe          []string  `json:"timeframe"`
	Commentary         string    `json:"commentary,omitempty"`
}

// SignalResponse bundles everything produced for one alert.
type SignalResponse struct {
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	ProcessingTime time.Duration    `json:"processing_time"`
	Alert          Alert            `json:"alert"`
	Signal         *EnhancedSignal  `json:"signal"`
	Sentiment      *SentimentResult `json:"sentiment"`
	Weighting      *WeightResult    `json:"weighting"`
	Decision       *TradingDecision `json:"decision"`
	Report         *Report          `json:"report"`
}

// TrainingResult describes one heuristic self-check run.
type TrainingResult struct {
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	TotalSamples    int                `json:"total_samples"`
	Success         bool               `json:"success"`
	Error           string             `json:"error,omitempty"`
	QualityAccuracy float64            `json:"quality_accuracy"`
	OutcomeAccuracy float64            `json:"outcome_accuracy"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

// ModelPerformance is the per-component accuracy summary, in percent.
type ModelPerformance struct {
	GeneratedAt                    time.Time  `json:"generated_at"`
	SignalValidationAccuracy       float64    `json:"signal_validation_accuracy"`
	PatternRecognitionAccuracy     float64    `json:"pattern_recognition_accuracy"`
	SentimentAnalysisAccuracy      float64    `json:"sentiment_analysis_accuracy"`
	AdaptiveWeightingEffectiveness float64    `json:"adaptive_weighting_effectiveness"`
	OverallSystemAccuracy          float64    `json:"overall_system_accuracy"`
	LastTrainedAt                  *time.Time `json:"last_trained_at,omitempty"`
}

// PatternAnalysis is the pattern-only view of an alert.
type PatternAnalysis struct {
	Symbol         string            `json:"symbol"`
	Timestamp      time.Time         `json:"timestamp"`
	Patterns       []DetectedPattern `json:"patterns"`
	Count          int               `json:"count"`
	HighConfidence []DetectedPattern `json:"high_confidence"`
}

// SignalSummary is the compact record kept for recently processed alerts.
type SignalSummary struct {
	ID              string        `json:"id"`
	SignalID        string        `json:"signal_id"`
	Timestamp       time.Time     `json:"timestamp"`
	ConfidenceScore float64       `json:"confidence_score"`
	Decision        DecisionLabel `json:"decision"`
	AdaptiveWeight  float64       `json:"adaptive_weight"`
}

// Dashboard is the combined overview served to operators.
type Dashboard struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Sentiment     *SentimentResult `json:"sentiment"`
	Performance   ModelPerformance `json:"performance"`
	RecentSignals []SignalSummary  `json:"recent_signals"`
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
