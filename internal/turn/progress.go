package turn

// maxProgressDelta bounds how much a single turn can move the progress score.
const maxProgressDelta = 5

// applyProgress clamps the requested delta to [0,5] and the resulting score to
// [0,100], returning the new score and the delta actually applied. The actual
// delta captures clamping so rollback reverses exactly what happened.
func applyProgress(oldScore, requestedDelta int64) (newScore, actualDelta int64) {
	d := requestedDelta
	if d < 0 {
		d = 0
	}
	if d > maxProgressDelta {
		d = maxProgressDelta
	}

	newScore = oldScore + d
	if newScore > 100 {
		newScore = 100
	}
	if newScore < 0 {
		newScore = 0
	}
	return newScore, newScore - oldScore
}

// raiseValuation moves the valuation range up to the score-derived floor.
// Valuation never decreases automatically; the deltas are the differences
// actually applied after the monotonic max.
func raiseValuation(oldLow, oldHigh, newScore int64) (newLow, newHigh, lowDelta, highDelta int64) {
	newLow = oldLow
	if v := newScore * 50; v > newLow {
		newLow = v
	}
	newHigh = oldHigh
	if v := newScore * 100; v > newHigh {
		newHigh = v
	}
	return newLow, newHigh, newLow - oldLow, newHigh - oldHigh
}

// floorSub subtracts delta from v, flooring at zero. Rollback uses it so a
// reversal can never drive progress, valuation, or balance negative.
func floorSub(v, delta int64) int64 {
	out := v - delta
	if out < 0 {
		return 0
	}
	return out
}
