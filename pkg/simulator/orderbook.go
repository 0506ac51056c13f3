package simulator

import (
	"fmt"
	"math"

	"github.com/the-block/block-buster/pkg/models"
)

// GenerateOrderBook synthesizes a full book around the engine's drifting
// mid price: spread near the configured bps target, levels stepping outward
// from the touch, exponentially decaying volume apportioned across one to
// three orders per level. Aggregates are recomputed from the levels, never
// set directly. The generator draws all randomness through the noise
// source, so a stubbed source yields an identical book for the same chain
// state.
func (e *Engine) GenerateOrderBook() *models.OrderBook {
	mid := int64(math.Round(e.mid))

	spreadBps := e.cfg.TargetSpreadBps + e.noise()*3
	if spreadBps < 1 {
		spreadBps = 1
	}
	spread := int64(math.Round(float64(mid) * spreadBps / 10000))
	if spread < 2 {
		spread = 2
	}

	bestBid := mid - spread/2
	bestAsk := bestBid + spread

	// Volume near the touch grows with maturity and daily seasonality.
	maturity := e.MaturityFactor()
	seasonal := e.TimeOfDayMultiplier(e.now())
	touchVolume := e.cfg.BaseLevelVolume * seasonal * (0.8 + 0.4*maturity)

	// Levels step outward by roughly half the spread.
	baseStep := spread / 2
	if baseStep < 1 {
		baseStep = 1
	}

	book := &models.OrderBook{
		Symbol:      e.cfg.Symbol,
		Bids:        make([]models.PriceLevel, 0, e.cfg.BookLevels),
		Asks:        make([]models.PriceLevel, 0, e.cfg.BookLevels),
		GeneratedAt: e.now(),
	}

	bidPrice, askPrice := bestBid, bestAsk
	for i := 0; i < e.cfg.BookLevels; i++ {
		decayed := touchVolume * math.Exp(-e.cfg.VolumeDecay*float64(i))

		bidVolume := int64(math.Max(1, math.Round(decayed*(1+e.noise()*0.1))))
		book.Bids = append(book.Bids, e.buildLevel("b", bidPrice, models.OrderSideBuy, bidVolume, i))

		askVolume := int64(math.Max(1, math.Round(decayed*(1+e.noise()*0.1))))
		book.Asks = append(book.Asks, e.buildLevel("a", askPrice, models.OrderSideSell, askVolume, i))

		bidStep := baseStep + int64(math.Abs(e.noise())*float64(baseStep)*0.3)
		askStep := baseStep + int64(math.Abs(e.noise())*float64(baseStep)*0.3)
		bidPrice -= bidStep
		askPrice += askStep

		if bidPrice < 1 {
			break
		}
	}

	last := mid + int64(e.noise()*float64(spread)*0.2)
	if last <= bestBid {
		last = bestBid + 1
	}
	if last >= bestAsk {
		last = bestAsk - 1
	}
	book.LastTradePrice = last

	book.RecomputeAggregates()
	return book
}

// buildLevel apportions a level's volume across one to three orders. The
// order count and split come from the noise source so the structure stays
// reproducible under a stubbed source.
func (e *Engine) buildLevel(prefix string, price int64, side models.OrderSide, volume int64, level int) models.PriceLevel {
	count := 1 + int(math.Min(2, math.Abs(e.noise())))
	if int64(count) > volume {
		count = 1
	}

	orders := make([]models.Order, 0, count)
	share := volume / int64(count)
	remainder := volume - share*int64(count)
	for j := 0; j < count; j++ {
		amount := share
		if j == 0 {
			amount += remainder
		}
		orders = append(orders, models.Order{
			ID:      fmt.Sprintf("%s-%d-%d-%d", prefix, e.blockHeight, level, j),
			Account: fmt.Sprintf("acct-%04d", (e.blockHeight+int64(level*7+j*3))%9973),
			Side:    side,
			Amount:  amount,
			Price:   price,
		})
	}

	return models.PriceLevel{Price: price, Orders: orders}
}
