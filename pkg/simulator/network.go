package simulator

import (
	"math"

	"github.com/the-block/block-buster/pkg/models"
)

// GenerateNetworkStats synthesizes chain-health numbers. The strength score
// uses the node's own weighting: up to 30 points for peers, 40 for TPS and
// 30 for finality.
func (e *Engine) GenerateNetworkStats() *models.NetworkStats {
	maturity := e.MaturityFactor()
	seasonal := e.TimeOfDayMultiplier(e.now())

	tps := math.Max(0, (40+maturity*700)*seasonal+e.noise()*20)
	peers := int64(math.Max(1, math.Round(8+maturity*90+e.noise()*3)))
	validators := int64(math.Max(1, math.Round(float64(e.cfg.BaselineMiners)/4+maturity*60+e.noise()*2)))
	finalityMs := math.Max(200, 2600-maturity*1800+e.noise()*120)

	peerScore := math.Min(float64(peers)/50*30, 30)
	tpsScore := math.Min(tps/1000*40, 40)
	// 30 points at instant finality, one point lost per 10 seconds.
	finalityScore := math.Max(30-finalityMs/1000/10, 0)

	return &models.NetworkStats{
		BlockHeight:     e.blockHeight,
		Epoch:           e.epoch,
		TPS:             tps,
		PeerCount:       peers,
		ValidatorCount:  validators,
		FinalityMs:      finalityMs,
		NetworkStrength: int(peerScore + tpsScore + finalityScore),
		GeneratedAt:     e.now(),
	}
}

// GenerateAdQuality synthesizes the ad market's policy snapshot. The
// quality score blends click-through, conversion and relevance on the same
// weights the ad_market namespace reports.
func (e *Engine) GenerateAdQuality() *models.AdQualitySnapshot {
	maturity := e.MaturityFactor()

	campaigns := int64(math.Max(0, math.Round(5+maturity*220+e.noise()*8)))
	ctr := clamp(1.2+maturity*2.4+e.noise()*0.3, 0, 100)
	conversion := clamp(0.2+maturity*1.1+e.noise()*0.12, 0, 100)
	relevance := clamp(55+maturity*30+e.noise()*4, 0, 100)

	// CTR and conversion are percentages with single-digit ceilings in
	// practice; normalize them onto 0..100 before blending.
	quality := clamp(0.35*(ctr/5*100)+0.25*(conversion/2*100)+0.40*relevance, 0, 100)

	return &models.AdQualitySnapshot{
		ActiveCampaigns: campaigns,
		ClickThroughPct: ctr,
		ConversionPct:   conversion,
		RelevanceScore:  relevance,
		QualityScore:    quality,
		GeneratedAt:     e.now(),
	}
}
