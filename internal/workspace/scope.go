package workspace

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MetricOptions bounds and rounds an adjusted metric. The zero value means
// min 0, no upper bound, integer rounding.
type MetricOptions struct {
	Min      float64
	Max      float64 // 0 means unbounded
	Decimals int
}

// AdjustMetric scales value by multiplier, clamps it into [Min, Max] and
// rounds. Integer rounding is half up; Decimals > 0 rounds to that many
// places with exact binary ties going away from zero.
func AdjustMetric(value, multiplier float64, opts MetricOptions) float64 {
	if math.IsNaN(value) {
		value = 0
	}
	upper := opts.Max
	if upper == 0 {
		upper = math.Inf(1)
	}
	adjusted := math.Min(upper, math.Max(opts.Min, value*multiplier))
	if opts.Decimals > 0 {
		return roundFixed(adjusted, opts.Decimals)
	}
	return math.Floor(adjusted + 0.5)
}

// roundFixed rounds x to decimals places on its exact binary value. Ties
// round away from zero, unlike strconv which rounds them to even.
func roundFixed(x float64, decimals int) float64 {
	if math.IsInf(x, 0) || math.Abs(x) >= 1e21 {
		return x
	}
	neg := x < 0
	scaled := new(big.Float).SetPrec(uint(64 + 4*decimals)).SetFloat64(math.Abs(x))
	scaled.Mul(scaled, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))

	n, _ := scaled.Int(nil)
	frac := new(big.Float).Sub(scaled, new(big.Float).SetInt(n))
	if frac.Cmp(big.NewFloat(0.5)) >= 0 {
		n.Add(n, big.NewInt(1))
	}

	digits := n.String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	s := digits[:len(digits)-decimals] + "." + digits[len(digits)-decimals:]
	if neg {
		s = "-" + s
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// Seed is the position-weighted character sum of a workspace id.
func Seed(workspaceID string) int {
	seed := 0
	for i, r := range []rune(workspaceID) {
		seed += int(r) * (i + 1)
	}
	return seed
}

// ScopeCollection returns a rotated, possibly shortened copy of items that
// is stable for a given workspace. It varies presentation only and must not
// be used to hide data from a role. minLen < 1 is treated as 1.
func ScopeCollection[T any](workspaceID string, items []T, minLen int) []T {
	n := len(items)
	if n == 0 {
		return []T{}
	}
	if n <= 2 {
		return items
	}
	if minLen < 1 {
		minLen = 1
	}
	seed := Seed(workspaceID)
	shift := seed % n
	trim := seed % min(3, n-1)
	length := max(minLen, n-trim)

	out := make([]T, length)
	for k := range out {
		out[k] = items[(k+shift)%n]
	}
	return out
}

