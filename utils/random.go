package utils

import "math/rand/v2"

// PickRandom returns a uniformly chosen element of items.
func PickRandom[T any](items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[rand.IntN(len(items))], true
}
