// Package storage defines the support for saving the state of the simulated
// network so a demo can be resumed after the node restarts.
package storage

import (
	"errors"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot represents what is written to storage.
type Snapshot struct {
	Nodes   []peer.Node  `json:"nodes"`
	Pending []mempool.Tx `json:"pending"`
}

// Storage interface represents the behavior required to be implemented by any
// package providing support for saving and loading the network state.
type Storage interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
	Close() error
}
