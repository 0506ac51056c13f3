package simulator

import (
	"testing"
	"time"
)

func testEngine(seed int64) *Engine {
	cfg := DefaultConfig()
	cfg.Seed = seed
	return NewEngine(cfg)
}

func TestMaturityFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GenesisEmission = 0
	cfg.MaturityEmission = 1000
	cfg.EmissionPerTick = 100
	e := NewEngine(cfg)
	e.SetNoise(func() float64 { return 0 })

	if m := e.MaturityFactor(); m != 0 {
		t.Fatalf("expected zero maturity at genesis, got %f", m)
	}

	for i := 0; i < 5; i++ {
		e.Advance()
	}
	if m := e.MaturityFactor(); m != 0.5 {
		t.Fatalf("expected maturity 0.5 after half reference emission, got %f", m)
	}

	for i := 0; i < 50; i++ {
		e.Advance()
	}
	if m := e.MaturityFactor(); m != 1 {
		t.Fatalf("maturity must cap at 1, got %f", m)
	}
}

func TestTimeOfDayMultiplierBounds(t *testing.T) {
	e := testEngine(1)

	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			// 2026-06-01 is a Monday.
			ts := time.Date(2026, 6, 1+day, hour, 0, 0, 0, time.UTC)
			m := e.TimeOfDayMultiplier(ts)
			if m < 0.4 || m > 1.5 {
				t.Fatalf("multiplier %f out of bounds at day %d hour %d", m, day, hour)
			}
		}
	}
}

func TestTimeOfDayMultiplierPeaksAtPeakHour(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PeakHour = 15
	e := NewEngine(cfg)

	// Tuesday
	peak := e.TimeOfDayMultiplier(time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC))
	trough := e.TimeOfDayMultiplier(time.Date(2026, 6, 2, 3, 0, 0, 0, time.UTC))
	if peak <= trough {
		t.Fatalf("expected peak hour multiplier %f above trough %f", peak, trough)
	}
}

func TestTimeOfDayMultiplierWeekendDamping(t *testing.T) {
	e := testEngine(1)

	weekday := e.TimeOfDayMultiplier(time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC))  // Tuesday
	weekend := e.TimeOfDayMultiplier(time.Date(2026, 6, 6, 15, 0, 0, 0, time.UTC))  // Saturday
	if weekend >= weekday {
		t.Fatalf("expected weekend multiplier %f below weekday %f", weekend, weekday)
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	e := testEngine(42)

	prevHeight := e.BlockHeight()
	prevEmission := e.Emission()
	for i := 0; i < 100; i++ {
		e.Advance()
		if e.BlockHeight() <= prevHeight {
			t.Fatalf("block height did not advance at tick %d", i)
		}
		if e.Emission() < prevEmission {
			t.Fatalf("emission regressed at tick %d", i)
		}
		prevHeight = e.BlockHeight()
		prevEmission = e.Emission()
	}
}

func TestEmissionCapsAtMaxSupply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GenesisEmission = cfg.MaxSupply - 10
	cfg.EmissionPerTick = 100
	e := NewEngine(cfg)

	e.Advance()
	if e.Emission() != cfg.MaxSupply {
		t.Fatalf("expected emission capped at %f, got %f", cfg.MaxSupply, e.Emission())
	}
}

func TestGaussianIsRoughlyCentered(t *testing.T) {
	e := testEngine(7)

	var sum float64
	const n = 10000
	for i := 0; i < n; i++ {
		sum += e.gaussian()
	}
	mean := sum / n
	if mean < -0.05 || mean > 0.05 {
		t.Fatalf("gaussian mean %f too far from zero", mean)
	}
}
