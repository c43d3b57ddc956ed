package graph

import (
	"fmt"
	"math/bits"
)

// TokenSet is a fixed-capacity set of token indices backed by 64-bit words.
// The DFS enumerators use it as their visited set.
type TokenSet []uint64

// NewTokenSet returns an empty set able to hold indices in [0, n).
func NewTokenSet(n int) TokenSet {
	if n < 0 {
		panic(fmt.Sprintf("token set size must not be negative: %d", n))
	}
	return make(TokenSet, (n+63)/64)
}

func (s TokenSet) Contains(i int) bool {
	return s[i/64]&(uint64(1)<<(uint(i)%64)) != 0
}

func (s TokenSet) Add(i int) {
	s[i/64] |= uint64(1) << (uint(i) % 64)
}

func (s TokenSet) Remove(i int) {
	s[i/64] &^= uint64(1) << (uint(i) % 64)
}

// Len counts the members of the set.
func (s TokenSet) Len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}
