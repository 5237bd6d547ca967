package domain

import (
	"fmt"
	"sort"
)

// PairKey identifies the two-party thread between a and b.
// The pair is unordered: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s", ids[0], ids[1])
}
