package depth

import (
	"fmt"
	"math"

	"github.com/the-block/block-buster/pkg/models"
)

// Options configures chart construction. Every recognized option is a
// field; zero values take the documented defaults.
type Options struct {
	// Width and Height of the plot area in pixels.
	Width  int
	Height int
	// PrecisionDecimals controls how many fractional digits display
	// prices carry after conversion from micro-USD. nil means the default
	// of 2; an explicit zero shows whole currency units.
	PrecisionDecimals *int
	// PadFraction is the symmetric padding applied to both chart domains.
	PadFraction float64
}

func (o *Options) applyDefaults() {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 300
	}
	if o.PrecisionDecimals == nil || *o.PrecisionDecimals < 0 {
		two := 2
		o.PrecisionDecimals = &two
	}
	if o.PadFraction <= 0 {
		o.PadFraction = 0.02
	}
}

// CurvePoint is one vertex of a cumulative-volume curve, carrying both the
// book coordinates and the projected pixel coordinates.
type CurvePoint struct {
	Side        models.OrderSide `json:"side"`
	Price       int64            `json:"price"`
	LevelVolume int64            `json:"level_volume"`
	Cumulative  int64            `json:"cumulative"`
	OrderCount  int              `json:"order_count"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
}

// Chart is the drawable model of one order-book snapshot: the bid curve
// fills the low-price side of mid, the ask curve the high-price side, and
// a vertical marker at mid carries the spread label. The chart is a pure
// function of (book, options); it holds no render state.
type Chart struct {
	Empty bool `json:"empty"`

	Bids []CurvePoint `json:"bids"`
	Asks []CurvePoint `json:"asks"`

	PriceMin  float64 `json:"price_min"`
	PriceMax  float64 `json:"price_max"`
	VolumeMax float64 `json:"volume_max"`

	Mid         int64   `json:"mid"`
	MidX        float64 `json:"mid_x"`
	SpreadBps   int64   `json:"spread_bps"`
	SpreadLabel string  `json:"spread_label"`

	Width  int `json:"width"`
	Height int `json:"height"`

	opts Options
}

// BuildChart turns an order book into its depth-chart model. A nil book,
// an empty side, or a book violating its ordering invariants yields the
// empty placeholder chart rather than an error: a malformed book is the
// generator's bug, and the dashboard should degrade, not crash.
func BuildChart(book *models.OrderBook, opts Options) *Chart {
	opts.applyDefaults()

	chart := &Chart{
		Empty:  true,
		Width:  opts.Width,
		Height: opts.Height,
		opts:   opts,
	}
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return chart
	}
	if err := book.Validate(); err != nil {
		return chart
	}

	// Cumulative volume walks each side from the touch outward.
	bids := make([]CurvePoint, 0, len(book.Bids))
	var bidSum int64
	for _, l := range book.Bids {
		bidSum += l.Volume()
		bids = append(bids, CurvePoint{
			Side:        models.OrderSideBuy,
			Price:       l.Price,
			LevelVolume: l.Volume(),
			Cumulative:  bidSum,
			OrderCount:  l.OrderCount(),
		})
	}

	asks := make([]CurvePoint, 0, len(book.Asks))
	var askSum int64
	for _, l := range book.Asks {
		askSum += l.Volume()
		asks = append(asks, CurvePoint{
			Side:        models.OrderSideSell,
			Price:       l.Price,
			LevelVolume: l.Volume(),
			Cumulative:  askSum,
			OrderCount:  l.OrderCount(),
		})
	}

	lowest := float64(bids[len(bids)-1].Price)
	highest := float64(asks[len(asks)-1].Price)
	pad := (highest - lowest) * opts.PadFraction
	if pad <= 0 {
		pad = 1
	}

	chart.Empty = false
	chart.Bids = bids
	chart.Asks = asks
	chart.PriceMin = lowest - pad
	chart.PriceMax = highest + pad
	chart.VolumeMax = float64(maxI(bidSum, askSum)) * (1 + opts.PadFraction)
	chart.Mid = book.MidPrice()
	chart.SpreadBps = book.SpreadBps
	chart.SpreadLabel = fmt.Sprintf("%.2f%%", float64(book.SpreadBps)/100)

	for i := range chart.Bids {
		chart.Bids[i].X = chart.xFor(float64(chart.Bids[i].Price))
		chart.Bids[i].Y = chart.yFor(float64(chart.Bids[i].Cumulative))
	}
	for i := range chart.Asks {
		chart.Asks[i].X = chart.xFor(float64(chart.Asks[i].Price))
		chart.Asks[i].Y = chart.yFor(float64(chart.Asks[i].Cumulative))
	}
	chart.MidX = chart.xFor(float64(chart.Mid))

	return chart
}

// DisplayPrice converts an integer micro-USD price to display currency
// with the configured precision.
func (c *Chart) DisplayPrice(price int64) string {
	return fmt.Sprintf("%.*f", *c.opts.PrecisionDecimals, float64(price)/1e6)
}

func (c *Chart) xFor(price float64) float64 {
	span := c.PriceMax - c.PriceMin
	if span <= 0 {
		return 0
	}
	return (price - c.PriceMin) / span * float64(c.Width)
}

func (c *Chart) yFor(volume float64) float64 {
	if c.VolumeMax <= 0 {
		return float64(c.Height)
	}
	y := float64(c.Height) - volume/c.VolumeMax*float64(c.Height)
	return math.Max(0, y)
}

func maxI(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
