package util_test

import (
	"testing"

	"github.com/glizzus/opusframe/internal/util"
)

func TestFindFirst(t *testing.T) {
	isEven := func(x int) bool { return x%2 == 0 }

	tests := []struct {
		name      string
		slice     []int
		predicate func(int) bool
		expected  int
		found     bool
	}{
		{
			name:      "match in the middle",
			slice:     []int{1, 3, 4, 6},
			predicate: isEven,
			expected:  4,
			found:     true,
		},
		{
			name:      "no match",
			slice:     []int{1, 3, 5},
			predicate: isEven,
		},
		{
			name:      "nil slice",
			predicate: isEven,
		},
		{
			name:      "first element wins",
			slice:     []int{8, 2},
			predicate: isEven,
			expected:  8,
			found:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, found := util.FindFirst(tt.slice, tt.predicate)
			if result != tt.expected || found != tt.found {
				t.Errorf("FindFirst() = (%v, %v), want (%v, %v)", result, found, tt.expected, tt.found)
			}
		})
	}
}
