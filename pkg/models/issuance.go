package models

import (
	"time"
)

// IssuanceSnapshot captures one evaluation of The Block's per-block reward
// formula. FinalReward is always the product of BaseReward and the three
// multipliers; it is recomputed, never assigned independently.
type IssuanceSnapshot struct {
	BaseReward             float64 `json:"base_reward"`
	ActivityMultiplier     float64 `json:"activity_multiplier"`
	DecentralizationFactor float64 `json:"decentralization_factor"`
	SupplyDecay            float64 `json:"supply_decay"`
	FinalReward            float64 `json:"final_reward"`

	Emission     float64   `json:"emission"`
	MaxSupply    float64   `json:"max_supply"`
	UniqueMiners int64     `json:"unique_miners"`
	BlockHeight  int64     `json:"block_height"`
	Epoch        int64     `json:"epoch"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// NetworkStats is the dashboard's headline view of chain health. Strength
// combines peer, TPS and finality scores the way the node's own metrics
// endpoint does: up to 30 points for peers, 40 for TPS, 30 for finality.
type NetworkStats struct {
	BlockHeight     int64     `json:"block_height"`
	Epoch           int64     `json:"epoch"`
	TPS             float64   `json:"tps"`
	PeerCount       int64     `json:"peer_count"`
	ValidatorCount  int64     `json:"validator_count"`
	FinalityMs      float64   `json:"finality_ms"`
	NetworkStrength int       `json:"network_strength"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// AdQualitySnapshot scores the ad market's current campaigns. Scores are
// 0..100; QualityScore is the weighted blend the ad_market namespace
// publishes in its policy snapshot.
type AdQualitySnapshot struct {
	ActiveCampaigns int64     `json:"active_campaigns"`
	ClickThroughPct float64   `json:"click_through_pct"`
	ConversionPct   float64   `json:"conversion_pct"`
	RelevanceScore  float64   `json:"relevance_score"`
	QualityScore    float64   `json:"quality_score"`
	GeneratedAt     time.Time `json:"generated_at"`
}
