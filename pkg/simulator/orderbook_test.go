package simulator

import (
	"testing"
	"time"
)

func TestGeneratedBooksHoldInvariants(t *testing.T) {
	seeds := []int64{1, 7, 42, 1234}
	for _, seed := range seeds {
		e := testEngine(seed)
		for i := 0; i < 200; i++ {
			e.Advance()
			book := e.GenerateOrderBook()
			if err := book.Validate(); err != nil {
				t.Fatalf("seed %d tick %d: generated book invalid: %v", seed, i, err)
			}
			if bid, ask := book.BestBid(), book.BestAsk(); bid.Price >= ask.Price {
				t.Fatalf("seed %d tick %d: crossed book", seed, i)
			}
			if book.LastTradePrice <= book.BestBid().Price || book.LastTradePrice >= book.BestAsk().Price {
				t.Fatalf("seed %d tick %d: last trade %d outside spread", seed, i, book.LastTradePrice)
			}
		}
	}
}

func TestVolumeDecaysAwayFromTouch(t *testing.T) {
	e := testEngine(3)
	e.SetNoise(func() float64 { return 0 })
	e.Advance()

	book := e.GenerateOrderBook()
	for i := 1; i < len(book.Bids); i++ {
		if book.Bids[i].Volume() > book.Bids[i-1].Volume() {
			t.Fatalf("bid volume grew away from touch at level %d", i)
		}
	}
	for i := 1; i < len(book.Asks); i++ {
		if book.Asks[i].Volume() > book.Asks[i-1].Volume() {
			t.Fatalf("ask volume grew away from touch at level %d", i)
		}
	}
}

// With the noise source stubbed out, generation is a pure function of the
// simulated chain state: consecutive calls yield structurally identical
// books.
func TestGenerationIsDeterministicWithoutNoise(t *testing.T) {
	e := testEngine(9)
	e.SetNoise(func() float64 { return 0 })
	e.SetClock(func() time.Time {
		return time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	})
	e.Advance()

	first := e.GenerateOrderBook()
	second := e.GenerateOrderBook()

	if len(first.Bids) != len(second.Bids) || len(first.Asks) != len(second.Asks) {
		t.Fatalf("level counts differ: %d/%d vs %d/%d",
			len(first.Bids), len(first.Asks), len(second.Bids), len(second.Asks))
	}
	for i := range first.Bids {
		if first.Bids[i].Price != second.Bids[i].Price {
			t.Fatalf("bid price differs at level %d: %d vs %d", i, first.Bids[i].Price, second.Bids[i].Price)
		}
		if first.Bids[i].Volume() != second.Bids[i].Volume() {
			t.Fatalf("bid volume differs at level %d", i)
		}
	}
	for i := range first.Asks {
		if first.Asks[i].Price != second.Asks[i].Price {
			t.Fatalf("ask price differs at level %d: %d vs %d", i, first.Asks[i].Price, second.Asks[i].Price)
		}
		if first.Asks[i].Volume() != second.Asks[i].Volume() {
			t.Fatalf("ask volume differs at level %d", i)
		}
	}
	if first.TotalBidVolume != second.TotalBidVolume || first.TotalAskVolume != second.TotalAskVolume {
		t.Fatalf("aggregate volumes differ")
	}
}

// Mirrors the reference scenario: mid 115000 micro-USD at 87 bps puts the
// touch near 114500/115500 with ten-plus decaying levels below the bid.
func TestBookShapeKnownScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialMidPrice = 115_000
	cfg.TargetSpreadBps = 87
	cfg.BookLevels = 12
	e := NewEngine(cfg)
	e.SetNoise(func() float64 { return 0 })

	book := e.GenerateOrderBook()

	bestBid := book.BestBid().Price
	bestAsk := book.BestAsk().Price
	if bestBid < 114498 || bestBid > 114502 {
		t.Fatalf("expected best bid near 114500, got %d", bestBid)
	}
	if bestAsk < 115498 || bestAsk > 115503 {
		t.Fatalf("expected best ask near 115500, got %d", bestAsk)
	}
	if len(book.Bids) < 10 {
		t.Fatalf("expected at least 10 bid levels, got %d", len(book.Bids))
	}
	for i := 1; i < len(book.Bids); i++ {
		if book.Bids[i].Price >= book.Bids[i-1].Price {
			t.Fatalf("bid prices not strictly decreasing at level %d", i)
		}
	}
}

func TestLevelOrderApportionment(t *testing.T) {
	e := testEngine(21)
	for i := 0; i < 50; i++ {
		e.Advance()
		book := e.GenerateOrderBook()
		for _, l := range append(book.Bids, book.Asks...) {
			n := l.OrderCount()
			if n < 1 || n > 3 {
				t.Fatalf("level at %d has %d orders, want 1..3", l.Price, n)
			}
			var sum int64
			for _, o := range l.Orders {
				if o.Amount <= 0 {
					t.Fatalf("order with non-positive amount at price %d", l.Price)
				}
				sum += o.Amount
			}
			if sum != l.Volume() {
				t.Fatalf("order amounts at price %d do not sum to level volume", l.Price)
			}
		}
	}
}
