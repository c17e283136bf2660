// Package peer maintains the simulated peers of the network, their chains
// and the links between them.
package peer

import (
	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
)

// Set of message kinds exchanged between peers.
const (
	KindText  = "text"
	KindBlock = "block"
	KindChain = "chain"
)

// Message represents something one peer sent to another over a connection.
type Message struct {
	Kind        string         `json:"kind"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Text        string         `json:"text,omitempty"`
	Block       database.Block `json:"block"`
	ChainLength int            `json:"chainLength"`
	TimeStamp   int64          `json:"timestamp"`
}

// Connection represents an outbound link to another peer and the messages
// that have been sent over it.
type Connection struct {
	Name  string    `json:"name"`
	Inbox []Message `json:"messages"`
}

// Node represents a simulated participant holding its own chain.
type Node struct {
	ID        string         `json:"peer"`
	Chain     database.Chain `json:"blockchain"`
	Connected []Connection   `json:"connectedPeers"`
}

// IsConnected validates if this node has an outbound link to the peer.
func (n Node) IsConnected(to string) bool {
	for _, conn := range n.Connected {
		if conn.Name == to {
			return true
		}
	}
	return false
}

// ConnectedNames returns the names of the peers this node links to.
func (n Node) ConnectedNames() []string {
	names := make([]string, len(n.Connected))
	for i, conn := range n.Connected {
		names[i] = conn.Name
	}
	return names
}

// Status reports the current status of the node.
func (n Node) Status() Status {
	tip, _ := n.Chain.Tip()

	return Status{
		Peer:              n.ID,
		LatestBlockHash:   tip.Hash,
		LatestBlockNumber: tip.Index,
		ChainLength:       len(n.Chain),
		KnownPeers:        n.ConnectedNames(),
	}
}

// clone makes a copy of the node that shares no memory with the original.
func (n Node) clone() Node {
	conns := make([]Connection, len(n.Connected))
	for i, conn := range n.Connected {
		inbox := make([]Message, len(conn.Inbox))
		copy(inbox, conn.Inbox)

		conns[i] = Connection{
			Name:  conn.Name,
			Inbox: inbox,
		}
	}

	return Node{
		ID:        n.ID,
		Chain:     n.Chain.Clone(),
		Connected: conns,
	}
}

// =============================================================================

// Status represents information about the status of any given peer.
type Status struct {
	Peer              string   `json:"peer"`
	LatestBlockHash   string   `json:"latest_block_hash"`
	LatestBlockNumber uint64   `json:"latest_block_number"`
	ChainLength       int      `json:"chain_length"`
	KnownPeers        []string `json:"known_peers"`
}
