package utils

func MapSlice[T any, U any](s []T, mapper func(e T) U) []U {
	result := make([]U, len(s))

	for i, e := range s {
		result[i] = mapper(e)
	}

	return result
}

// Some returns true if at least one element of s satisfies the predicate.
func Some[T any](s []T, predicate func(e T) bool) bool {
	for _, e := range s {
		if predicate(e) {
			return true
		}
	}
	return false
}
