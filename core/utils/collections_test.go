package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	set := map[string]struct{}{"G Maj": {}, "C Min": {}, "A 7": {}, "C# Maj": {}}
	assert.Equal(t, []string{"A 7", "C Min", "C# Maj", "G Maj"}, SortedKeys(set))
	assert.Empty(t, SortedKeys(map[int]bool{}))
}
