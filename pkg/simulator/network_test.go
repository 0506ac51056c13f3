package simulator

import (
	"math"
	"testing"
	"time"
)

// Mirrors the node's own weighting: peers contribute up to 30 points, TPS
// up to 40, finality up to 30 with one point lost per 10 seconds.
func TestNetworkStrengthKnownScenario(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.SetNoise(func() float64 { return 0 })
	e.SetClock(func() time.Time {
		// Tuesday at the peak hour, so the seasonal multiplier is 1.4.
		return time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC)
	})

	stats := e.GenerateNetworkStats()

	// maturity 0.16: tps (40+112)*1.4 = 212.8, peers 22, finality 2312 ms.
	if math.Abs(stats.TPS-212.8) > 1e-9 {
		t.Fatalf("expected tps 212.8, got %f", stats.TPS)
	}
	if stats.PeerCount != 22 {
		t.Fatalf("expected 22 peers, got %d", stats.PeerCount)
	}
	if math.Abs(stats.FinalityMs-2312) > 1e-9 {
		t.Fatalf("expected finality 2312 ms, got %f", stats.FinalityMs)
	}

	// 22/50*30 + 212.8/1000*40 + (30 - 2.312/10) = 13.2 + 8.512 + 29.7688.
	if stats.NetworkStrength != 51 {
		t.Fatalf("expected network strength 51, got %d", stats.NetworkStrength)
	}
}

func TestNetworkStrengthBounds(t *testing.T) {
	seeds := []int64{1, 7, 42, 777}
	for _, seed := range seeds {
		e := testEngine(seed)
		for i := 0; i < 300; i++ {
			e.Advance()
			stats := e.GenerateNetworkStats()
			if stats.NetworkStrength < 0 || stats.NetworkStrength > 100 {
				t.Fatalf("seed %d tick %d: strength %d out of [0, 100]",
					seed, i, stats.NetworkStrength)
			}
		}
	}
}
