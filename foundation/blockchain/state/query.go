package state

import (
	"fmt"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
)

// RetrieveGenesis returns the genesis block shared by every peer.
func (s *State) RetrieveGenesis() database.Block {
	return s.genesis
}

// RetrieveSnapshot returns the current snapshot of the network.
func (s *State) RetrieveSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot
}

// RetrieveNodes returns a copy of every peer in the network.
func (s *State) RetrieveNodes() []peer.Node {
	return s.RetrieveSnapshot().Registry.Nodes()
}

// RetrieveNode returns the specified peer.
func (s *State) RetrieveNode(name string) (peer.Node, error) {
	node, exists := s.RetrieveSnapshot().Registry.Node(name)
	if !exists {
		return peer.Node{}, fmt.Errorf("%s: %w", name, ErrPeerNotFound)
	}
	return node, nil
}

// RetrievePending returns a copy of the pending transactions.
func (s *State) RetrievePending() []mempool.Tx {
	return s.RetrieveSnapshot().Pending.Copy()
}

// ValidateChain reports if the peer's chain is valid along with the status
// of every block in it.
func (s *State) ValidateChain(name string) (bool, []database.BlockStatus, error) {
	node, err := s.RetrieveNode(name)
	if err != nil {
		return false, nil, err
	}

	return database.IsValidChain(node.Chain, s.genesis), database.Audit(node.Chain, s.genesis), nil
}

// Ready reports if the network can serve requests. The genesis block must
// still verify and a worker must be registered for mining.
func (s *State) Ready() error {
	if err := genesis.Verify(); err != nil {
		return err
	}
	if s.Worker == nil {
		return ErrNoWorker
	}
	return nil
}
