package state

import (
	"fmt"
	"time"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
)

// AddPeer adds a new peer to the network holding only the genesis block. If
// name is empty the configured name generator picks one.
func (s *State) AddPeer(name string) (peer.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.snapshot.Registry.Names()

	if name == "" {
		if s.names == nil {
			return peer.Node{}, ErrNoNames
		}
		name = s.names.Generate(existing)
	}

	// A generator handing out a name in use is a configuration problem.
	if _, exists := s.snapshot.Registry.Node(name); exists {
		return peer.Node{}, fmt.Errorf("%s: %w", name, ErrDuplicatePeer)
	}

	snap := s.commit(AddPeer{Name: name})
	node, _ := snap.Registry.Node(name)

	s.evHandler("state: AddPeer: peer[%s]: peers[%d]", name, snap.Registry.Len())

	return node, nil
}

// RemovePeer removes the peer from the network and from every other
// peer's connections. Any mining for the peer is cancelled.
func (s *State) RemovePeer(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshot.Registry.Node(name); !exists {
		return fmt.Errorf("%s: %w", name, ErrPeerNotFound)
	}

	s.signalCancelMining(name)
	s.commit(RemovePeer{Peer: name})

	s.evHandler("state: RemovePeer: peer[%s]", name)

	return nil
}

// ConnectPeer links from to to. The link is one directional.
func (s *State) ConnectPeer(from string, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(from)
	if err != nil {
		return err
	}
	if _, err := s.requireNode(to); err != nil {
		return err
	}

	switch {
	case from == to:
		return ErrSelfConnect
	case node.IsConnected(to):
		return fmt.Errorf("%s->%s: %w", from, to, ErrAlreadyConnected)
	}

	s.commit(ConnectPeer{From: from, To: to})

	s.evHandler("state: ConnectPeer: from[%s]: to[%s]", from, to)

	return nil
}

// DisconnectPeer removes the link from from to to.
func (s *State) DisconnectPeer(from string, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(from)
	if err != nil {
		return err
	}
	if !node.IsConnected(to) {
		return fmt.Errorf("%s->%s: %w", from, to, ErrNotConnected)
	}

	s.commit(DisconnectPeer{From: from, To: to})

	s.evHandler("state: DisconnectPeer: from[%s]: to[%s]", from, to)

	return nil
}

// SendMessage records a text message on the link from from to to.
func (s *State) SendMessage(from string, to string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(from)
	if err != nil {
		return err
	}
	if !node.IsConnected(to) {
		return fmt.Errorf("%s->%s: %w", from, to, ErrNotConnected)
	}

	s.commit(SendMessage{
		From: from,
		To:   to,
		Message: peer.Message{
			Kind:      peer.KindText,
			From:      from,
			To:        to,
			Text:      text,
			TimeStamp: time.Now().UnixMilli(),
		},
	})

	return nil
}

// AddBlock appends the block to the peer's chain. No validation is
// performed, use ProposeBlock to apply the consensus rules.
func (s *State) AddBlock(name string, block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireNode(name); err != nil {
		return err
	}

	s.signalCancelMining(name)
	s.commit(AddBlock{Peer: name, Block: block})

	return nil
}

// ReplaceChain overwrites the peer's chain. No validation is performed,
// use ProposeChain to apply the consensus rules.
func (s *State) ReplaceChain(name string, chain database.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireNode(name); err != nil {
		return err
	}

	s.signalCancelMining(name)
	s.commit(ReplaceChain{Peer: name, Chain: chain})

	return nil
}

// AddTransaction adds the transaction to the pending pool.
func (s *State) AddTransaction(tx mempool.Tx) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.commit(AddTransaction{Tx: tx})

	s.evHandler("state: AddTransaction: tx[%s]: pending[%d]", tx, snap.Pending.Count())

	return snap.Pending.Count()
}

// RemoveTransaction removes every equal transaction from the pending pool.
func (s *State) RemoveTransaction(tx mempool.Tx) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.commit(RemoveTransaction{Tx: tx})

	s.evHandler("state: RemoveTransaction: tx[%s]: pending[%d]", tx, snap.Pending.Count())

	return snap.Pending.Count()
}

// =============================================================================

// requireNode returns the node for the peer or ErrPeerNotFound. The caller
// must be holding mu.
func (s *State) requireNode(name string) (peer.Node, error) {
	node, exists := s.snapshot.Registry.Node(name)
	if !exists {
		return peer.Node{}, fmt.Errorf("%s: %w", name, ErrPeerNotFound)
	}
	return node, nil
}
