package markets

import (
	"github.com/defistate/routematrix-go/engine"
	"github.com/ethereum/go-ethereum/common"
)

// IndexedTokens provides fast lookups over the tokens of a market file.
type IndexedTokens struct {
	bySymbol  map[engine.Token]Token
	byAddress map[common.Address]Token
	all       []Token
}

// NewIndexedTokens creates an index from a raw slice. Tokens without an
// address are only reachable by symbol.
func NewIndexedTokens(tokens []Token) *IndexedTokens {
	bySymbol := make(map[engine.Token]Token, len(tokens))
	byAddress := make(map[common.Address]Token, len(tokens))

	for _, t := range tokens {
		bySymbol[engine.Token(t.Symbol)] = t
		if t.Address != "" {
			byAddress[t.HexAddress()] = t
		}
	}

	return &IndexedTokens{
		bySymbol:  bySymbol,
		byAddress: byAddress,
		all:       tokens,
	}
}

// GetBySymbol retrieves a token by its symbol.
func (it *IndexedTokens) GetBySymbol(symbol engine.Token) (Token, bool) {
	t, ok := it.bySymbol[symbol]
	return t, ok
}

// GetByAddress retrieves a token by its contract address.
func (it *IndexedTokens) GetByAddress(address common.Address) (Token, bool) {
	t, ok := it.byAddress[address]
	return t, ok
}

// All returns a defensive copy of the slice of all tokens.
func (it *IndexedTokens) All() []Token {
	allCopy := make([]Token, len(it.all))
	copy(allCopy, it.all)
	return allCopy
}
