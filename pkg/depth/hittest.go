package depth

import (
	"math"

	"github.com/the-block/block-buster/pkg/models"
)

// HitPoint is the tooltip payload for one hovered curve vertex.
type HitPoint struct {
	Side         models.OrderSide `json:"side"`
	Price        int64            `json:"price"`
	DisplayPrice string           `json:"display_price"`
	LevelVolume  int64            `json:"level_volume"`
	Cumulative   int64            `json:"cumulative"`
	OrderCount   int              `json:"order_count"`
	// Crosshair guide coordinates.
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Hit finds the curve vertex nearest the pointer's x coordinate across
// both sides. Returns nil on an empty chart.
func (c *Chart) Hit(x float64) *HitPoint {
	if c.Empty {
		return nil
	}

	var best *CurvePoint
	bestDist := math.Inf(1)
	for i := range c.Bids {
		if d := math.Abs(c.Bids[i].X - x); d < bestDist {
			bestDist = d
			best = &c.Bids[i]
		}
	}
	for i := range c.Asks {
		if d := math.Abs(c.Asks[i].X - x); d < bestDist {
			bestDist = d
			best = &c.Asks[i]
		}
	}
	if best == nil {
		return nil
	}

	return &HitPoint{
		Side:         best.Side,
		Price:        best.Price,
		DisplayPrice: c.DisplayPrice(best.Price),
		LevelVolume:  best.LevelVolume,
		Cumulative:   best.Cumulative,
		OrderCount:   best.OrderCount,
		X:            best.X,
		Y:            best.Y,
	}
}

// PriceAt resolves a click at pixel x to the nearest level's raw integer
// price. The caller owns what happens with the price (typically an order
// entry form); the chart never mutates anything.
func (c *Chart) PriceAt(x float64) (int64, bool) {
	hit := c.Hit(x)
	if hit == nil {
		return 0, false
	}
	return hit.Price, true
}
