package domain

import (
	"math"
	"strconv"
)

// Score is a reputation value held in tenths of a degree, so 36.5 is stored
// as 365. Every mutation moves by whole tenths, which keeps the stored value
// at one decimal place without float rounding.
type Score int64

// DefaultScore is the reputation every new account starts with.
const DefaultScore Score = 365

// ScoreFromFloat converts a decimal value to a Score, rounding half away from zero.
func ScoreFromFloat(f float64) Score {
	return Score(math.Round(f * 10))
}

// ReviewDelta returns the signed adjustment a single review applies.
func ReviewDelta(positive bool) Score {
	if positive {
		return 1
	}
	return -1
}

// Float64 returns the score as a decimal with one fractional digit.
func (s Score) Float64() float64 {
	return float64(s) / 10
}

func (s Score) String() string {
	n := int64(s)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + strconv.FormatInt(n/10, 10) + "." + strconv.FormatInt(n%10, 10)
}
