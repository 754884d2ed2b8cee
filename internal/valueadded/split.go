package valueadded

import "math/rand"

// trainTestSplit shuffles [0,n) with the seeded rng and splits off the
// trailing testRatio share as the holdout. The same n, ratio and seed
// always produce the same split.
func trainTestSplit(n int, testRatio float64, rng *rand.Rand) (train, test []int) {
	perm := rng.Perm(n)

	testSize := int(float64(n) * testRatio)
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}

	return perm[:n-testSize], perm[n-testSize:]
}
