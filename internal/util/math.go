package util

// SafeDiv returns num/den as a float. A missing numerator, or a missing or
// non-positive denominator, yields 0.
func SafeDiv(num, den *float64) float64 {
	if den == nil || *den <= 0 {
		return 0
	}
	if num == nil {
		return 0
	}
	return *num / *den
}

// Ratio is SafeDiv for counters that are known to be present.
func Ratio(num, den int64) float64 {
	n, d := float64(num), float64(den)
	return SafeDiv(&n, &d)
}

// Int64OrZero dereferences an optional counter.
func Int64OrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
