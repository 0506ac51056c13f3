package depth

import (
	"testing"

	"github.com/the-block/block-buster/pkg/models"
)

func level(price int64, amounts ...int64) models.PriceLevel {
	l := models.PriceLevel{Price: price}
	for _, a := range amounts {
		l.Orders = append(l.Orders, models.Order{
			ID:     "o",
			Amount: a,
			Price:  price,
			Side:   models.OrderSideBuy,
		})
	}
	return l
}

// testBook is a hand-sized book: three levels a side, mid 101, volumes
// chosen so the cumulative sums are easy to check.
func testBook() *models.OrderBook {
	book := &models.OrderBook{
		Symbol: "BLOCK-USD",
		Bids: []models.PriceLevel{
			level(100, 10),
			level(98, 12, 8),
			level(96, 30),
		},
		Asks: []models.PriceLevel{
			level(102, 5),
			level(104, 15),
			level(106, 25),
		},
		LastTradePrice: 101,
	}
	book.RecomputeAggregates()
	return book
}

func TestBuildChartCumulativeCurves(t *testing.T) {
	chart := BuildChart(testBook(), Options{Width: 104, Height: 100})
	if chart.Empty {
		t.Fatalf("chart should not be empty for a valid book")
	}

	wantBidCum := []int64{10, 30, 60}
	for i, want := range wantBidCum {
		if got := chart.Bids[i].Cumulative; got != want {
			t.Fatalf("bid cumulative[%d] = %d, want %d", i, got, want)
		}
	}
	wantAskCum := []int64{5, 20, 45}
	for i, want := range wantAskCum {
		if got := chart.Asks[i].Cumulative; got != want {
			t.Fatalf("ask cumulative[%d] = %d, want %d", i, got, want)
		}
	}

	if chart.Bids[1].OrderCount != 2 {
		t.Fatalf("bid level 98 should carry 2 orders, got %d", chart.Bids[1].OrderCount)
	}
	if chart.Mid != 101 {
		t.Fatalf("mid = %d, want 101", chart.Mid)
	}

	// Price domain: outermost levels 96..106 padded by 2% of the span.
	if chart.PriceMin >= 96 || chart.PriceMin < 95 {
		t.Fatalf("price min %.2f not padded below 96", chart.PriceMin)
	}
	if chart.PriceMax <= 106 || chart.PriceMax > 107 {
		t.Fatalf("price max %.2f not padded above 106", chart.PriceMax)
	}
	if chart.VolumeMax <= 60 {
		t.Fatalf("volume max %.2f should pad above the deepest cumulative", chart.VolumeMax)
	}
}

func TestBuildChartProjectionsAreOrdered(t *testing.T) {
	chart := BuildChart(testBook(), Options{Width: 800, Height: 300})

	// Bids walk from the touch outward, so X decreases along the curve.
	for i := 1; i < len(chart.Bids); i++ {
		if chart.Bids[i].X >= chart.Bids[i-1].X {
			t.Fatalf("bid X not decreasing at %d: %.2f >= %.2f", i, chart.Bids[i].X, chart.Bids[i-1].X)
		}
		if chart.Bids[i].Y >= chart.Bids[i-1].Y {
			t.Fatalf("bid Y not decreasing at %d: deeper cumulative must sit higher", i)
		}
	}
	for i := 1; i < len(chart.Asks); i++ {
		if chart.Asks[i].X <= chart.Asks[i-1].X {
			t.Fatalf("ask X not increasing at %d", i)
		}
	}

	// The mid marker sits strictly between the two touches.
	if !(chart.Bids[0].X < chart.MidX && chart.MidX < chart.Asks[0].X) {
		t.Fatalf("mid marker %.2f not between touches %.2f and %.2f",
			chart.MidX, chart.Bids[0].X, chart.Asks[0].X)
	}
}

func TestBuildChartSpreadLabel(t *testing.T) {
	chart := BuildChart(testBook(), Options{})
	// Spread 2 on mid 101 is 198 bps.
	if chart.SpreadBps != 198 {
		t.Fatalf("spread bps = %d, want 198", chart.SpreadBps)
	}
	if chart.SpreadLabel != "1.98%" {
		t.Fatalf("spread label = %q, want %q", chart.SpreadLabel, "1.98%")
	}
}

func TestBuildChartDegradesToPlaceholder(t *testing.T) {
	crossed := testBook()
	crossed.Bids[0].Price = 103

	cases := []struct {
		name string
		book *models.OrderBook
	}{
		{"nil book", nil},
		{"no bids", &models.OrderBook{Asks: testBook().Asks}},
		{"no asks", &models.OrderBook{Bids: testBook().Bids}},
		{"crossed book", crossed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chart := BuildChart(tc.book, Options{Width: 640, Height: 240})
			if !chart.Empty {
				t.Fatalf("expected empty placeholder")
			}
			if chart.Width != 640 || chart.Height != 240 {
				t.Fatalf("placeholder must keep requested dimensions, got %dx%d", chart.Width, chart.Height)
			}
			if hit := chart.Hit(100); hit != nil {
				t.Fatalf("empty chart must not hit, got %+v", hit)
			}
			if _, ok := chart.PriceAt(100); ok {
				t.Fatalf("empty chart must not resolve a price")
			}
		})
	}
}

func TestHitFindsNearestVertex(t *testing.T) {
	chart := BuildChart(testBook(), Options{Width: 800, Height: 300})

	// Pointer exactly on the second bid vertex.
	hit := chart.Hit(chart.Bids[1].X)
	if hit == nil {
		t.Fatalf("expected a hit")
	}
	if hit.Side != models.OrderSideBuy || hit.Price != 98 {
		t.Fatalf("hit resolved to %s@%d, want buy@98", hit.Side, hit.Price)
	}
	if hit.Cumulative != 30 || hit.LevelVolume != 20 || hit.OrderCount != 2 {
		t.Fatalf("hit payload %+v does not match level", hit)
	}

	// Far past the right edge the outermost ask is nearest.
	hit = chart.Hit(float64(chart.Width) + 500)
	if hit == nil || hit.Price != 106 {
		t.Fatalf("expected outermost ask at 106, got %+v", hit)
	}

	// Halfway between two bid vertices snaps to one of them, never in
	// between.
	midway := (chart.Bids[0].X + chart.Bids[1].X) / 2
	hit = chart.Hit(midway + 0.01)
	if hit == nil || (hit.Price != 100 && hit.Price != 98) {
		t.Fatalf("midway hit resolved to %+v", hit)
	}
}

func TestPriceAtResolvesClick(t *testing.T) {
	chart := BuildChart(testBook(), Options{Width: 800, Height: 300})

	price, ok := chart.PriceAt(chart.Asks[0].X)
	if !ok {
		t.Fatalf("expected click to resolve")
	}
	if price != 102 {
		t.Fatalf("click resolved to %d, want 102", price)
	}
}

func intp(v int) *int { return &v }

func TestDisplayPricePrecision(t *testing.T) {
	cases := []struct {
		name      string
		precision *int
		price     int64
		want      string
	}{
		{"unset defaults to two digits", nil, 115_500_000, "115.50"},
		{"two digits truncate", intp(2), 115_501_234, "115.50"},
		{"four digits", intp(4), 115_501_234, "115.5012"},
		{"rounds up", intp(2), 999_999, "1.00"},
		{"explicit zero shows whole units", intp(0), 115_501_234, "116"},
		{"negative falls back to default", intp(-3), 115_500_000, "115.50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chart := BuildChart(testBook(), Options{PrecisionDecimals: tc.precision})
			if got := chart.DisplayPrice(tc.price); got != tc.want {
				t.Fatalf("DisplayPrice(%d) = %q, want %q", tc.price, got, tc.want)
			}
		})
	}
}
