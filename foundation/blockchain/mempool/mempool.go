// Package mempool maintains the pool of unconfirmed transactions.
package mempool

import (
	"encoding/json"
	"fmt"
)

// Tx represents an unconfirmed transaction waiting to be mined.
type Tx struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
	Memo   string `json:"memo,omitempty"`
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.From, tx.To, tx.Amount)
}

// =============================================================================

// Pool represents the unordered set of unconfirmed transactions. Duplicates
// are allowed. A Pool is a value, Add and Remove return a new Pool.
type Pool struct {
	txs []Tx
}

// New constructs a pool holding the specified transactions.
func New(txs ...Tx) Pool {
	cpy := make([]Tx, len(txs))
	copy(cpy, txs)
	return Pool{txs: cpy}
}

// Count returns the current number of transactions in the pool.
func (p Pool) Count() int {
	return len(p.txs)
}

// Copy returns a list of the current transactions in the pool.
func (p Pool) Copy() []Tx {
	cpy := make([]Tx, len(p.txs))
	copy(cpy, p.txs)
	return cpy
}

// Add returns a pool with the transaction appended.
func (p Pool) Add(tx Tx) Pool {
	txs := make([]Tx, len(p.txs), len(p.txs)+1)
	copy(txs, p.txs)
	return Pool{txs: append(txs, tx)}
}

// Remove returns a pool with every transaction equal to tx removed.
func (p Pool) Remove(tx Tx) Pool {
	txs := make([]Tx, 0, len(p.txs))
	for _, t := range p.txs {
		if t != tx {
			txs = append(txs, t)
		}
	}
	return Pool{txs: txs}
}

// Consume returns a pool with one occurrence of each of the transactions
// removed. Equal transactions beyond the ones listed stay in the pool.
func (p Pool) Consume(txs []Tx) Pool {
	want := make(map[Tx]int, len(txs))
	for _, tx := range txs {
		want[tx]++
	}

	keep := make([]Tx, 0, len(p.txs))
	for _, t := range p.txs {
		if want[t] > 0 {
			want[t]--
			continue
		}
		keep = append(keep, t)
	}
	return Pool{txs: keep}
}

// Contains reports if an equal transaction exists in the pool.
func (p Pool) Contains(tx Tx) bool {
	for _, t := range p.txs {
		if t == tx {
			return true
		}
	}
	return false
}

// =============================================================================

// Encode renders the set of transactions as block data.
func Encode(txs []Tx) (string, error) {
	data, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("encoding transactions: %w", err)
	}
	return string(data), nil
}

// Decode extracts the set of transactions from block data. Block data that
// wasn't produced by Encode returns an error.
func Decode(data string) ([]Tx, error) {
	var txs []Tx
	if err := json.Unmarshal([]byte(data), &txs); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}
	return txs, nil
}
