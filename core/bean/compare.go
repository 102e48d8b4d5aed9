package bean

// EqualSets reports whether a and b hold the same values regardless of order:
// same length and each list contained in the other.
func EqualSets(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	return len(MissingFrom(b, a)) == 0 && len(MissingFrom(a, b)) == 0
}

// MissingFrom returns the needles that have no equal counterpart in haystack,
// in needle order.
func MissingFrom(haystack, needles []Value) []Value {
	var missing []Value
	for _, needle := range needles {
		found := false
		for _, candidate := range haystack {
			if Equal(candidate, needle) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, needle)
		}
	}
	return missing
}
