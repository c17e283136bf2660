package database

// Chain represents an ordered sequence of blocks rooted at the genesis block.
// A Chain value is treated as immutable, every change produces a new slice so
// a snapshot handed to a reader is never modified underneath it.
type Chain []Block

// Clone returns a copy of the chain that shares no memory with the original.
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}

	cpy := make(Chain, len(c))
	copy(cpy, c)
	return cpy
}

// Tip returns the last block in the chain.
func (c Chain) Tip() (Block, bool) {
	if len(c) == 0 {
		return Block{}, false
	}
	return c[len(c)-1], true
}

// Append returns a new chain with the block added to the end.
func (c Chain) Append(block Block) Chain {
	cpy := make(Chain, len(c), len(c)+1)
	copy(cpy, c)
	return append(cpy, block)
}

// WithData overwrites the data of the block at index and recomputes its hash
// using the existing nonce and timestamp. Every later block is then relinked
// to its predecessor and rehashed with its own stale nonce. The result is
// internally linked but the hashes will generally no longer be solved.
func (c Chain) WithData(index int, data string) Chain {
	cpy := c.Clone()
	if index < 0 || index >= len(cpy) {
		return cpy
	}

	cpy[index].Data = data
	cpy[index].Hash = cpy[index].ComputeHash()
	cpy.relink(index)

	return cpy
}

// WithMined overwrites the mined fields of the block at index with the
// solution provided and relinks every later block the same way WithData
// does. Only the targeted block becomes solved, its descendants need to be
// re-mined in turn.
func (c Chain) WithMined(index int, nonce uint64, hash string, timeStamp int64) Chain {
	cpy := c.Clone()
	if index < 0 || index >= len(cpy) {
		return cpy
	}

	cpy[index].Nonce = nonce
	cpy[index].Hash = hash
	cpy[index].TimeStamp = timeStamp
	cpy.relink(index)

	return cpy
}

// relink walks the blocks after index pointing each one at the hash of its
// predecessor and recomputing its hash. Must only be called on a fresh copy.
func (c Chain) relink(index int) {
	for i := index + 1; i < len(c); i++ {
		c[i].PreviousHash = c[i-1].Hash
		c[i].Hash = c[i].ComputeHash()
	}
}

// =============================================================================

// IsValidNextBlock checks the next block can follow the previous block. Both
// the hash the block points back to and its own hash must be solved.
func IsValidNextBlock(next Block, previous Block) bool {
	switch {
	case previous.Index+1 != next.Index:
		return false
	case previous.Hash != next.PreviousHash:
		return false
	case !IsValidHashDifficulty(next.PreviousHash):
		return false
	case !IsValidHashDifficulty(next.Hash):
		return false
	}

	return true
}

// IsValidChain checks the chain starts with the specified genesis block and
// that every block is a valid next block of the block validated before it.
func IsValidChain(chain Chain, genesis Block) bool {
	if len(chain) == 0 || chain[0] != genesis {
		return false
	}

	validated := chain[0]
	for _, block := range chain[1:] {
		if !IsValidNextBlock(block, validated) {
			return false
		}
		validated = block
	}

	return true
}

// =============================================================================

// BlockStatus describes the validity of a single block inside a chain.
type BlockStatus struct {
	Index  uint64 `json:"index"`
	Hash   string `json:"hash"`
	Solved bool   `json:"solved"`
	Valid  bool   `json:"valid"`
}

// Audit reports the status of every block in the chain. A block is valid
// when it and all of its ancestors pass validation against genesis, so one
// tampered block marks everything after it as invalid.
func Audit(chain Chain, genesis Block) []BlockStatus {
	statuses := make([]BlockStatus, len(chain))

	valid := len(chain) > 0 && chain[0] == genesis
	for i, block := range chain {
		if i > 0 {
			valid = valid && IsValidNextBlock(block, chain[i-1])
		}

		statuses[i] = BlockStatus{
			Index:  block.Index,
			Hash:   block.Hash,
			Solved: block.IsSolved(),
			Valid:  valid,
		}
	}

	return statuses
}
