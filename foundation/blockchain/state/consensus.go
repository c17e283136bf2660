package state

import (
	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
)

// Decision represents what the consensus rules decided to do with a
// candidate block or chain.
type Decision int

// Set of decisions the consensus rules can make.
const (
	DecisionReject Decision = iota
	DecisionAppend
	DecisionReplace
	DecisionIgnore
)

// String implements the fmt.Stringer interface.
func (d Decision) String() string {
	switch d {
	case DecisionAppend:
		return "append"
	case DecisionReplace:
		return "replace"
	case DecisionIgnore:
		return "ignore"
	default:
		return "reject"
	}
}

// Candidate represents what a peer received from the network. A peer that
// mined a block sends both the block and its full chain so the receiver can
// fall back to the chain when the block doesn't fit its tip.
type Candidate struct {
	Block *database.Block
	Chain database.Chain
}

// Resolve applies the longest valid chain rule.
//
//  1. A block that is a valid next block of the local tip is appended.
//  2. A chain longer than the local chain that is valid is a replacement.
//  3. A chain of equal length is ignored.
//  4. Anything else is rejected.
func Resolve(local database.Chain, c Candidate, genesis database.Block) Decision {
	if c.Block != nil {
		if tip, ok := local.Tip(); ok && database.IsValidNextBlock(*c.Block, tip) {
			return DecisionAppend
		}
	}

	if c.Chain != nil {
		switch {
		case len(c.Chain) > len(local) && database.IsValidChain(c.Chain, genesis):
			return DecisionReplace
		case len(c.Chain) == len(local):
			return DecisionIgnore
		}
	}

	return DecisionReject
}
