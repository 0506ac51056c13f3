package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/the-block/block-buster/pkg/simulator"
)

// Mode reports which data source feeds the dashboard.
type Mode string

const (
	ModeDetecting Mode = "Detecting"
	ModeLive      Mode = "Live"
	ModeMock      Mode = "Mock"
)

// Keys the manager tracks. Consumers read them through Get.
const (
	KeyOrderBook    = "orderBook"
	KeyIssuance     = "issuance"
	KeyAdQuality    = "adQuality"
	KeyNetworkStats = "networkStats"
)

// ProbeFunc checks whether a live node is reachable. A nil error means
// reachable.
type ProbeFunc func(ctx context.Context) error

// Options tunes the manager's timing. Zero values fall back to defaults
// chosen to match The Block's nominal 3-second block time.
type Options struct {
	ProbeInterval time.Duration
	TickInterval  time.Duration
	Symbol        string
}

func (o *Options) applyDefaults() {
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = 500 * time.Millisecond
	}
	if o.TickInterval <= 0 {
		o.TickInterval = 3 * time.Second
	}
	if o.Symbol == "" {
		o.Symbol = "BLOCK-USD"
	}
}

// Manager is the single source of truth for "is there a live node?" and a
// uniform snapshot store either polled from the node or regenerated by the
// simulator. One manager is built per session and handed to consumers;
// there is no package-level instance.
type Manager struct {
	probe  ProbeFunc
	reader NodeReader
	engine *simulator.Engine
	opts   Options
	logger *logrus.Logger

	// limiter paces live-mode polling so a short tick interval cannot
	// trip the node's RATE_LIMIT error.
	limiter *rate.Limiter

	mu    sync.RWMutex
	mode  Mode
	cache map[string]interface{}

	// generation guards against a superseded detection resolving late and
	// overriding a newer re-detect.
	generation int64
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// NewManager builds a manager. reader may be nil when no node will ever be
// polled (pure mock deployments); probe may be nil, which forces Mock mode.
func NewManager(probe ProbeFunc, reader NodeReader, engine *simulator.Engine, opts Options, logger *logrus.Logger) *Manager {
	opts.applyDefaults()
	return &Manager{
		probe:   probe,
		reader:  reader,
		engine:  engine,
		opts:    opts,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(opts.TickInterval/3), 2),
		mode:    ModeDetecting,
		cache:   make(map[string]interface{}),
	}
}

// Mode reports the current data-source mode.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

func (m *Manager) IsLive() bool { return m.Mode() == ModeLive }
func (m *Manager) IsMock() bool { return m.Mode() == ModeMock }

// Get returns the most recent snapshot for key, or nil when the key has
// not been populated yet (or is unknown). Callers tolerate nil during the
// detection window; an unknown key is not an error.
func (m *Manager) Get(key string) interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache[key]
}

// DetectNode probes for a live node until one answers or timeout elapses,
// then transitions to Live or Mock exactly once and starts the matching
// refresh loop. Probe failures are retried silently; absence of a node is
// a supported operating mode, not an error. Calling DetectNode again
// supersedes any detection still in flight.
func (m *Manager) DetectNode(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mode = ModeDetecting
	m.mu.Unlock()

	m.stopLoop()

	deadline := time.Now().Add(timeout)
	for m.probe != nil {
		probeCtx, cancel := context.WithTimeout(ctx, m.opts.ProbeInterval)
		err := m.probe(probeCtx)
		cancel()

		if err == nil {
			return m.resolve(gen, ModeLive)
		}
		if time.Now().After(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.opts.ProbeInterval):
		}
		if time.Now().After(deadline) {
			break
		}
	}

	return m.resolve(gen, ModeMock)
}

// resolve commits a detection outcome if it is still the current attempt.
// The generation re-check and the loop installation share one critical
// section: a re-detect landing in between would otherwise find no loop to
// stop and leave this attempt's loop running unowned.
func (m *Manager) resolve(gen int64, mode Mode) error {
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	if m.generation != gen {
		// A newer DetectNode superseded this attempt; drop the result.
		m.mu.Unlock()
		cancel()
		return nil
	}
	m.mode = mode
	m.loopCancel = cancel
	m.loopDone = done
	m.mu.Unlock()

	m.logger.WithField("mode", string(mode)).Info("Data source mode resolved")

	// A re-detect that supersedes us from here on blocks in stopLoop until
	// done closes, which happens after this first fill. It can never
	// interleave its own fill with ours.
	switch mode {
	case ModeLive:
		m.pollOnce(loopCtx)
		go m.liveLoop(loopCtx, done)
	case ModeMock:
		m.regenerate()
		go m.mockLoop(loopCtx, done)
	}
	return nil
}

// Stop shuts down whichever refresh loop is running.
func (m *Manager) Stop() {
	m.stopLoop()
}

func (m *Manager) stopLoop() {
	m.mu.Lock()
	cancel := m.loopCancel
	done := m.loopDone
	m.loopCancel = nil
	m.loopDone = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) mockLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.engine.Advance()
			m.regenerate()
		}
	}
}

// regenerate rebuilds every tracked key from the same simulated state.
// Values are replaced wholesale under one lock so no reader observes a
// torn snapshot.
func (m *Manager) regenerate() {
	book := m.engine.GenerateOrderBook()
	if err := book.Validate(); err != nil {
		// A generated book violating its own invariants is a generator
		// bug, not a market condition. Keep the previous snapshot.
		m.logger.WithError(err).Error("Generated order book failed validation")
		book = nil
	}

	issuance := m.engine.GenerateIssuance()
	stats := m.engine.GenerateNetworkStats()
	adQuality := m.engine.GenerateAdQuality()

	m.mu.Lock()
	if book != nil {
		m.cache[KeyOrderBook] = book
	}
	m.cache[KeyIssuance] = issuance
	m.cache[KeyNetworkStats] = stats
	m.cache[KeyAdQuality] = adQuality
	m.mu.Unlock()
}

func (m *Manager) set(key string, value interface{}) {
	m.mu.Lock()
	m.cache[key] = value
	m.mu.Unlock()
}
