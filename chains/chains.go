package chains

import "strings"

// Chain IDs of the networks a route matrix can be built for.
const (
	Mainnet   uint64 = 1
	Optimism  uint64 = 10
	BNBChain  uint64 = 56
	Polygon   uint64 = 137
	Fantom    uint64 = 250
	Base      uint64 = 8453
	Arbitrum  uint64 = 42161
	Avalanche uint64 = 43114
)

// Chain names a network. Name is the label used in output file names.
type Chain struct {
	Name string
	ID   uint64
}

var known = []Chain{
	{Name: "ethereum", ID: Mainnet},
	{Name: "optimism", ID: Optimism},
	{Name: "bsc", ID: BNBChain},
	{Name: "polygon", ID: Polygon},
	{Name: "fantom", ID: Fantom},
	{Name: "base", ID: Base},
	{Name: "arbitrum", ID: Arbitrum},
	{Name: "avalanche", ID: Avalanche},
}

// ByName looks up a chain by name, ignoring case.
func ByName(name string) (Chain, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range known {
		if c.Name == name {
			return c, true
		}
	}
	return Chain{}, false
}

// ByID looks up a chain by its numeric id.
func ByID(id uint64) (Chain, bool) {
	for _, c := range known {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// All returns every known chain ordered by id.
func All() []Chain {
	all := make([]Chain, len(known))
	copy(all, known)
	return all
}
