package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/the-block/block-buster/pkg/models"
	"github.com/the-block/block-buster/pkg/theblock"
)

// NodeReader is the slice of the node client the live poller needs.
// *theblock.Client satisfies it.
type NodeReader interface {
	BlockHeight(ctx context.Context) (int64, error)
	TPS(ctx context.Context) (float64, error)
	GetValidatorCount(ctx context.Context) (int64, error)
	GetPeerStats(ctx context.Context) (*theblock.PeerStats, error)
	GetOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error)
	GetIssuance(ctx context.Context) (*models.IssuanceSnapshot, error)
	GetAdPolicySnapshot(ctx context.Context) (*models.AdQualitySnapshot, error)
}

func (m *Manager) liveLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

// pollOnce refreshes every tracked key from the node. A failed key keeps
// its previous cached value until the next successful poll; stale data is
// preferable to a blank dashboard. RPC protocol errors are logged with
// their code but treated the same as transport failures here.
func (m *Manager) pollOnce(ctx context.Context) {
	if m.reader == nil {
		return
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return
	}

	if book, err := m.reader.GetOrderBook(ctx, m.opts.Symbol); err != nil {
		m.logPollError(KeyOrderBook, err)
	} else {
		m.set(KeyOrderBook, book)
	}

	if issuance, err := m.reader.GetIssuance(ctx); err != nil {
		m.logPollError(KeyIssuance, err)
	} else {
		m.set(KeyIssuance, issuance)
	}

	if adQuality, err := m.reader.GetAdPolicySnapshot(ctx); err != nil {
		m.logPollError(KeyAdQuality, err)
	} else {
		m.set(KeyAdQuality, adQuality)
	}

	if stats, err := m.pollNetworkStats(ctx); err != nil {
		m.logPollError(KeyNetworkStats, err)
	} else {
		m.set(KeyNetworkStats, stats)
	}
}

// pollNetworkStats composes the headline chain stats from the consensus
// and peer namespaces, scoring network strength the way the node's metrics
// endpoint does.
func (m *Manager) pollNetworkStats(ctx context.Context) (*models.NetworkStats, error) {
	height, err := m.reader.BlockHeight(ctx)
	if err != nil {
		return nil, err
	}
	tps, err := m.reader.TPS(ctx)
	if err != nil {
		return nil, err
	}
	peers, err := m.reader.GetPeerStats(ctx)
	if err != nil {
		return nil, err
	}
	validators, err := m.reader.GetValidatorCount(ctx)
	if err != nil {
		return nil, err
	}

	peerScore := minF(float64(peers.PeerCount)/50*30, 30)
	tpsScore := minF(tps/1000*40, 40)
	finalityScore := 0.0
	if peers.FinalityMs > 0 {
		// 30 points at instant finality, one point lost per 10 seconds.
		finalityScore = maxF(30-peers.FinalityMs/1000/10, 0)
	}

	return &models.NetworkStats{
		BlockHeight:     height,
		TPS:             tps,
		PeerCount:       peers.PeerCount,
		ValidatorCount:  validators,
		FinalityMs:      peers.FinalityMs,
		NetworkStrength: int(peerScore + tpsScore + finalityScore),
		GeneratedAt:     time.Now(),
	}, nil
}

// ObserveBlock lets the node's websocket event stream advance the cached
// block height between polls. Snapshots are copied, never mutated in
// place.
func (m *Manager) ObserveBlock(height int64) {
	if !m.IsLive() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.cache[KeyNetworkStats].(*models.NetworkStats)
	if !ok || height <= prev.BlockHeight {
		return
	}
	next := *prev
	next.BlockHeight = height
	next.GeneratedAt = time.Now()
	m.cache[KeyNetworkStats] = &next
}

func (m *Manager) logPollError(key string, err error) {
	entry := m.logger.WithError(err).WithField("key", key)

	var rpcErr *theblock.RPCError
	if errors.As(err, &rpcErr) {
		entry = entry.WithField("code", rpcErr.Code)
	}
	entry.Warn("Poll failed, keeping previous value")
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
