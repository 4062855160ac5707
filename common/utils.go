package common

// Coalesce returns the first of values that is not T's zero value. When every
// value is zero (or none are given), the zero value is returned.
//
// Parameters:
//   - values: candidate values in priority order
//
// Returns:
//   - T: the first non-zero value, or the zero value of T
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
