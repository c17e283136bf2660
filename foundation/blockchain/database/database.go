// Package database handles the lower level support for the blockchain. It
// provides the hash engine, the proof of work search that produces new
// blocks, and the validators that check a block or an entire chain.
package database

import "errors"

// ErrIndexOutOfRange is returned when a block index does not exist in a chain.
var ErrIndexOutOfRange = errors.New("block index out of range")

// BlockAt returns the block at the specified index.
func (c Chain) BlockAt(index int) (Block, error) {
	if index < 0 || index >= len(c) {
		return Block{}, ErrIndexOutOfRange
	}
	return c[index], nil
}
