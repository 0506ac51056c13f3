package models

import (
	"fmt"
	"math"
	"time"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Order is one resting order as The Block's markets report it. Prices are
// integer micro-USD per unit, amounts are integer smallest-unit quantities.
type Order struct {
	ID             string    `json:"id"`
	Account        string    `json:"account"`
	Side           OrderSide `json:"side"`
	Amount         int64     `json:"amount"`
	Price          int64     `json:"price"`
	MaxSlippageBps int64     `json:"max_slippage_bps,omitempty"`
}

// PriceLevel aggregates the resting orders at one exact price. Orders keep
// insertion order, which is time priority on the node.
type PriceLevel struct {
	Price  int64   `json:"price"`
	Orders []Order `json:"orders"`
}

// Volume is the total resting amount at this level.
func (l PriceLevel) Volume() int64 {
	var total int64
	for _, o := range l.Orders {
		total += o.Amount
	}
	return total
}

// OrderCount reports how many orders rest at this level.
func (l PriceLevel) OrderCount() int {
	return len(l.Orders)
}

// OrderBook is one market's resting orders. Bids are listed best (highest)
// first, asks best (lowest) first. Spread, SpreadBps and the volume totals
// are aggregates of the levels and are never set independently.
type OrderBook struct {
	Symbol         string       `json:"symbol"`
	Bids           []PriceLevel `json:"bids"`
	Asks           []PriceLevel `json:"asks"`
	Spread         int64        `json:"spread"`
	SpreadBps      int64        `json:"spread_bps"`
	TotalBidVolume int64        `json:"total_bid_volume"`
	TotalAskVolume int64        `json:"total_ask_volume"`
	LastTradePrice int64        `json:"last_trade_price"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// BestBid returns the highest bid level, or nil for an empty side.
func (b *OrderBook) BestBid() *PriceLevel {
	if len(b.Bids) == 0 {
		return nil
	}
	return &b.Bids[0]
}

// BestAsk returns the lowest ask level, or nil for an empty side.
func (b *OrderBook) BestAsk() *PriceLevel {
	if len(b.Asks) == 0 {
		return nil
	}
	return &b.Asks[0]
}

// MidPrice is the midpoint of the touch. Zero when either side is empty.
func (b *OrderBook) MidPrice() int64 {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil {
		return 0
	}
	return (bid.Price + ask.Price) / 2
}

// RecomputeAggregates derives Spread, SpreadBps and the volume totals from
// the current levels. Generators call this after building the levels so the
// aggregates can never drift from the book they describe.
func (b *OrderBook) RecomputeAggregates() {
	b.TotalBidVolume = 0
	for _, l := range b.Bids {
		b.TotalBidVolume += l.Volume()
	}
	b.TotalAskVolume = 0
	for _, l := range b.Asks {
		b.TotalAskVolume += l.Volume()
	}

	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil {
		b.Spread = 0
		b.SpreadBps = 0
		return
	}
	b.Spread = ask.Price - bid.Price
	if mid := b.MidPrice(); mid > 0 {
		b.SpreadBps = int64(math.Round(float64(b.Spread) * 10000 / float64(mid)))
	} else {
		b.SpreadBps = 0
	}
}

// Validate checks the book's structural invariants: bids strictly
// price-descending, asks strictly price-ascending, best bid below best ask,
// non-negative amounts, aggregates consistent with the levels.
func (b *OrderBook) Validate() error {
	for i := 1; i < len(b.Bids); i++ {
		if b.Bids[i].Price >= b.Bids[i-1].Price {
			return fmt.Errorf("bids not strictly descending at level %d: %d >= %d",
				i, b.Bids[i].Price, b.Bids[i-1].Price)
		}
	}
	for i := 1; i < len(b.Asks); i++ {
		if b.Asks[i].Price <= b.Asks[i-1].Price {
			return fmt.Errorf("asks not strictly ascending at level %d: %d <= %d",
				i, b.Asks[i].Price, b.Asks[i-1].Price)
		}
	}

	bid, ask := b.BestBid(), b.BestAsk()
	if bid != nil && ask != nil {
		if bid.Price >= ask.Price {
			return fmt.Errorf("crossed book: best bid %d >= best ask %d", bid.Price, ask.Price)
		}
		if b.Spread != ask.Price-bid.Price {
			return fmt.Errorf("spread %d does not match best ask - best bid %d",
				b.Spread, ask.Price-bid.Price)
		}
	}

	var bidVol, askVol int64
	for _, l := range b.Bids {
		for _, o := range l.Orders {
			if o.Amount <= 0 {
				return fmt.Errorf("non-positive order amount at bid price %d", l.Price)
			}
		}
		bidVol += l.Volume()
	}
	for _, l := range b.Asks {
		for _, o := range l.Orders {
			if o.Amount <= 0 {
				return fmt.Errorf("non-positive order amount at ask price %d", l.Price)
			}
		}
		askVol += l.Volume()
	}
	if bidVol != b.TotalBidVolume {
		return fmt.Errorf("total bid volume %d does not match levels %d", b.TotalBidVolume, bidVol)
	}
	if askVol != b.TotalAskVolume {
		return fmt.Errorf("total ask volume %d does not match levels %d", b.TotalAskVolume, askVol)
	}
	return nil
}
