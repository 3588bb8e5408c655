// Package simhash fingerprints the element structure of scraped result
// regions. The region locators and table walks are pinned to the
// measurement site's markup, and when that markup shifts the scraper
// misreads before it breaks. Comparing each region's structural
// fingerprint against the first one seen surfaces the shift in the logs.
package simhash

import (
	"hash/fnv"
	"math/bits"
)

// FingerprintTokens computes a 64-bit SimHash over a token stream using
// FNV-64a per token with bit vector accumulation. An empty stream maps
// to 0.
func FingerprintTokens(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
