package utils

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// SortedKeys 返回 map 的全部键，按升序排列
func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}
