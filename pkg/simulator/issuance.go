package simulator

import (
	"math"

	"github.com/the-block/block-buster/pkg/models"
)

// Bounds on the activity multiplier, per The Block's issuance rules.
const (
	activityFloor = 0.5
	activityCeil  = 1.8
)

// GenerateIssuance evaluates the per-block reward formula against the
// current simulated chain state. FinalReward is the product of the base
// reward and the three multipliers; nothing assigns it directly.
func (e *Engine) GenerateIssuance() *models.IssuanceSnapshot {
	maturity := e.MaturityFactor()

	// Each sub-ratio widens with maturity and wobbles with gaussian noise.
	txCountRatio := 0.80 + maturity*0.55 + e.noise()*0.08
	txVolumeRatio := 0.75 + maturity*0.60 + e.noise()*0.08
	utilization := math.Max(0, 0.10+maturity*0.45+e.noise()*0.05)

	product := math.Max(0, txCountRatio) * math.Max(0, txVolumeRatio) * (1 + utilization)
	activity := clamp(math.Cbrt(product), activityFloor, activityCeil)

	miners := float64(e.cfg.BaselineMiners) + maturity*e.cfg.MinerGrowth + e.noise()*6
	uniqueMiners := int64(math.Max(1, math.Round(miners)))
	decentralization := math.Sqrt(float64(uniqueMiners) / float64(e.cfg.BaselineMiners))

	supplyDecay := clamp((e.cfg.MaxSupply-e.emission)/e.cfg.MaxSupply, 0, 1)

	baseReward := 0.9 * e.cfg.MaxSupply / 100_000_000

	return &models.IssuanceSnapshot{
		BaseReward:             baseReward,
		ActivityMultiplier:     activity,
		DecentralizationFactor: decentralization,
		SupplyDecay:            supplyDecay,
		FinalReward:            baseReward * activity * decentralization * supplyDecay,
		Emission:               e.emission,
		MaxSupply:              e.cfg.MaxSupply,
		UniqueMiners:           uniqueMiners,
		BlockHeight:            e.blockHeight,
		Epoch:                  e.epoch,
		GeneratedAt:            e.now(),
	}
}
