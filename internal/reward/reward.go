// Package reward computes the final grant of a completed task.
package reward

import (
	"math"

	"github.com/verte-zerg/habitbattle/internal/model"
)

// Compute scales base by the window multiplier and, when bonusActive, by the
// bonus multiplier. Both deltas round half away from zero. The returned
// Multiplier is the combined factor applied to base.
func Compute(base model.Reward, windowMultiplier float64, bonusActive bool, bonusMultiplier float64) model.Reward {
	mult := windowMultiplier
	if mult <= 0 {
		mult = 1
	}
	if bonusActive && bonusMultiplier > 0 {
		mult *= bonusMultiplier
	}
	return model.Reward{
		CurrencyDelta:   scale(base.CurrencyDelta, mult),
		ExperienceDelta: scale(base.ExperienceDelta, mult),
		Multiplier:      mult,
	}
}

func scale(v int, mult float64) int {
	return int(math.Round(float64(v) * mult))
}
