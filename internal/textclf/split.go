package textclf

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split holds row indices of a train/test partition
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles 0..n-1 with a seeded source and holds out ceil(testSize*n) rows.
// The same n, testSize and seed always give the same partition.
func TrainTestSplit(n int, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size must be in (0,1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return Split{}, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test := append([]int(nil), perm[:nTest]...)
	train := append([]int(nil), perm[nTest:]...)
	sort.Ints(train)
	sort.Ints(test)
	return Split{Train: train, Test: test}, nil
}

// Pick returns values at the given indices
func Pick[T any](values []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
