package simulation

import (
	"fmt"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// monthRand builds the RNG for one loan-month. The stream is a pure
// function of (loan, period, batch seed), so re-running a batch with
// the same seed reproduces every draw regardless of worker scheduling
// or portfolio ordering.
func monthRand(seed uint64, loanID int64, periodMonth string) *rand.Rand {
	key := fmt.Sprintf("%d|%s|%d", loanID, periodMonth, seed)
	return rand.New(rand.NewSource(int64(xxhash.Sum64String(key))))
}
