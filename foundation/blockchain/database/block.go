package database

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Difficulty is the number of leading 0 hex characters a block hash needs
// to be considered solved. The genesis block hash is pinned against it.
const Difficulty = 3

// =============================================================================

// Block represents a single hash linked record in a chain.
type Block struct {
	Index        uint64 `json:"index"`        // Position in the chain, genesis is 0.
	PreviousHash string `json:"previousHash"` // Hash of the block before this one.
	TimeStamp    int64  `json:"timestamp"`    // Epoch milliseconds the hash was solved.
	Data         string `json:"data"`         // Opaque payload.
	Hash         string `json:"hash"`         // Digest over the other fields.
	Nonce        uint64 `json:"nonce"`        // Value identified to solve the hash.
}

// CalculateHash renders the block fields in their fixed order with no
// delimiter and returns the lowercase hex SHA-256 of that string.
func CalculateHash(index uint64, previousHash string, timeStamp int64, data string, nonce uint64) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(index, 10))
	b.WriteString(previousHash)
	b.WriteString(strconv.FormatInt(timeStamp, 10))
	b.WriteString(data)
	b.WriteString(strconv.FormatUint(nonce, 10))

	hash := sha256.Sum256([]byte(b.String()))
	return common.Bytes2Hex(hash[:])
}

// ComputeHash recalculates the hash for the block from its current fields.
func (b Block) ComputeHash() string {
	return CalculateHash(b.Index, b.PreviousHash, b.TimeStamp, b.Data, b.Nonce)
}

// IsSolved reports if the block's stored hash satisfies the difficulty.
func (b Block) IsSolved() bool {
	return IsValidHashDifficulty(b.Hash)
}

// IsValidHashDifficulty checks the hash starts with at least Difficulty
// number of 0's.
func IsValidHashDifficulty(hash string) bool {
	return IsValidHashDifficultyN(hash, Difficulty)
}

// IsValidHashDifficultyN counts the consecutive leading 0 characters of
// the hash and checks there are at least difficulty of them.
func IsValidHashDifficultyN(hash string, difficulty int) bool {
	var zeros int
	for zeros < len(hash) && hash[zeros] == '0' {
		zeros++
	}

	return zeros >= difficulty
}
