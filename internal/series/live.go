package series

import (
	"math"
	"time"

	"github.com/yourusername/scriptlab/internal/models"
)

// ApplyTick folds a live trade into the tail of a bar series and returns a new
// slice. When the tick falls at least one interval after the last bar a new bar
// is appended, otherwise the last bar is replaced by an updated copy. The input
// slice is never written to.
func ApplyTick(bars []models.Bar, tick models.Tick, interval time.Duration) []models.Bar {
	out := make([]models.Bar, len(bars), len(bars)+1)
	copy(out, bars)
	if len(out) == 0 {
		return append(out, barFromTick(tick.Time, tick))
	}

	last := out[len(out)-1]
	if interval > 0 && tick.Time.Sub(last.Time) >= interval {
		return append(out, barFromTick(last.Time.Add(interval), tick))
	}
	if tick.Time.Before(last.Time) {
		return out
	}

	out[len(out)-1] = models.Bar{
		Time:   last.Time,
		Open:   last.Open,
		High:   math.Max(last.High, tick.Price),
		Low:    math.Min(last.Low, tick.Price),
		Close:  tick.Price,
		Volume: last.Volume + tick.Size,
	}
	return out
}

func barFromTick(t time.Time, tick models.Tick) models.Bar {
	return models.Bar{
		Time:   t,
		Open:   tick.Price,
		High:   tick.Price,
		Low:    tick.Price,
		Close:  tick.Price,
		Volume: tick.Size,
	}
}
