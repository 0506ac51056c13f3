package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Config tunes the synthetic economy. Values mirror The Block's mainnet
// parameters so mock data stays in plausible ranges.
type Config struct {
	Symbol string
	Seed   int64

	// Chain parameters.
	MaxSupply        float64
	GenesisEmission  float64
	EmissionPerTick  float64
	MaturityEmission float64 // emission at which the network counts as mature
	BlocksPerTick    int64
	EpochBlocks      int64

	// Seasonality.
	PeakHour       int
	WeekendFactor  float64
	TimeOfDayFloor float64
	TimeOfDayCeil  float64

	// Order book shape.
	InitialMidPrice float64
	TargetSpreadBps float64
	BookLevels      int
	BaseLevelVolume float64
	VolumeDecay     float64

	// Mining.
	BaselineMiners int64
	MinerGrowth    float64
}

func DefaultConfig() Config {
	return Config{
		Symbol:           "BLOCK-USD",
		Seed:             time.Now().UnixNano(),
		MaxSupply:        40_000_000,
		GenesisEmission:  3_200_000,
		EmissionPerTick:  25,
		MaturityEmission: 20_000_000,
		BlocksPerTick:    1,
		EpochBlocks:      720,
		PeakHour:         15,
		WeekendFactor:    0.8,
		TimeOfDayFloor:   0.4,
		TimeOfDayCeil:    1.5,
		InitialMidPrice:  115_000,
		TargetSpreadBps:  87,
		BookLevels:       12,
		BaseLevelVolume:  180_000,
		VolumeDecay:      0.28,
		BaselineMiners:   120,
		MinerGrowth:      480,
	}
}

// NoiseFunc returns one draw from a standard gaussian. Tests stub it to
// zero to make generation deterministic.
type NoiseFunc func() float64

// Engine owns the simulated chain state and regenerates every tracked
// snapshot from it. All generators are pure functions of the current state
// and the noise draws; only Advance mutates state.
type Engine struct {
	cfg   Config
	rng   *rand.Rand
	noise NoiseFunc
	now   func() time.Time

	blockHeight int64
	epoch       int64
	emission    float64
	mid         float64
	tick        int64
}

func NewEngine(cfg Config) *Engine {
	rng := rand.New(rand.NewSource(cfg.Seed))
	e := &Engine{
		cfg:      cfg,
		rng:      rng,
		now:      time.Now,
		emission: cfg.GenesisEmission,
		mid:      cfg.InitialMidPrice,
	}
	e.noise = e.gaussian
	return e
}

// SetNoise replaces the gaussian source. Passing nil restores the default
// Box-Muller draw.
func (e *Engine) SetNoise(fn NoiseFunc) {
	if fn == nil {
		e.noise = e.gaussian
		return
	}
	e.noise = fn
}

// SetClock replaces the wall clock used for seasonality.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

func (e *Engine) BlockHeight() int64 { return e.blockHeight }
func (e *Engine) Epoch() int64       { return e.epoch }
func (e *Engine) Emission() float64  { return e.emission }

// Advance steps the simulated chain by one tick: height and emission move
// forward monotonically and the mid price drifts by trend, sine cycle and a
// small random walk. Pure noise would look jagged on the chart; the drift
// keeps successive books smooth.
func (e *Engine) Advance() {
	e.tick++
	e.blockHeight += e.cfg.BlocksPerTick
	if e.cfg.EpochBlocks > 0 {
		e.epoch = e.blockHeight / e.cfg.EpochBlocks
	}
	e.emission = math.Min(e.emission+e.cfg.EmissionPerTick, e.cfg.MaxSupply)

	trend := e.cfg.InitialMidPrice * 0.00002
	cycle := e.cfg.InitialMidPrice * 0.0015 * math.Sin(float64(e.tick)/40)
	walk := e.noise() * e.cfg.InitialMidPrice * 0.0008

	e.mid += trend + cycle + walk
	// keep the market away from zero no matter how long the walk runs
	if floor := e.cfg.InitialMidPrice * 0.2; e.mid < floor {
		e.mid = floor
	}
}

// MaturityFactor reports how far the simulated chain has progressed toward
// its reference emission, in [0, 1]. Early networks get narrow activity
// ranges; mature ones get the full spread.
func (e *Engine) MaturityFactor() float64 {
	if e.cfg.MaturityEmission <= 0 {
		return 1
	}
	return math.Min(1, e.emission/e.cfg.MaturityEmission)
}

// TimeOfDayMultiplier scales throughput-like quantities with a cosine curve
// centered on the configured peak hour, damped flat on weekends.
func (e *Engine) TimeOfDayMultiplier(t time.Time) float64 {
	hourOffset := float64(t.Hour()-e.cfg.PeakHour) / 24
	m := 0.95 + 0.45*math.Cos(2*math.Pi*hourOffset)

	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		m *= e.cfg.WeekendFactor
	}

	return clamp(m, e.cfg.TimeOfDayFloor, e.cfg.TimeOfDayCeil)
}

// gaussian draws one standard normal sample via the Box-Muller transform.
func (e *Engine) gaussian() float64 {
	u1 := e.rng.Float64()
	for u1 == 0 {
		u1 = e.rng.Float64()
	}
	u2 := e.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
