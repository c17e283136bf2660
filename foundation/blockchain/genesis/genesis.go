// Package genesis maintains access to the genesis block every node starts with.
package genesis

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
)

// Hash is the pinned hash of the genesis block. It binds both the hash
// algorithm and the difficulty constant.
const Hash = "000dc75a315c77a1f9c98fb6247d03dd18ac52632d7dc6a9920261d8109b37cf"

// ErrHashMismatch is returned by Verify when the genesis hash can't be
// reproduced from the genesis fields.
var ErrHashMismatch = errors.New("genesis hash mismatch")

// Block returns the genesis block. A new value is returned on every call.
func Block() database.Block {
	return database.Block{
		Index:        0,
		PreviousHash: "0",
		TimeStamp:    1508270000000,
		Data:         "Welcome to Blockchain Demo 2.0!",
		Hash:         Hash,
		Nonce:        604,
	}
}

// Chain returns a new chain holding only the genesis block.
func Chain() database.Chain {
	return database.Chain{Block()}
}

// Verify recomputes the genesis hash from its fields and checks it against
// the pinned hash. The node must not start if this fails.
func Verify() error {
	gen := Block()

	if len(gen.Hash) != 64 {
		return fmt.Errorf("%w: pinned hash has %d characters, exp 64", ErrHashMismatch, len(gen.Hash))
	}

	hash := gen.ComputeHash()
	if hash != gen.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrHashMismatch, hash, gen.Hash)
	}

	if !database.IsValidHashDifficulty(hash) {
		return fmt.Errorf("%w: hash %s doesn't meet difficulty %d", ErrHashMismatch, hash, database.Difficulty)
	}

	return nil
}
