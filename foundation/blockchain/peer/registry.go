package peer

import (
	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/genesis"
)

// Registry holds one node per peer. A Registry is a value, every transition
// returns a new Registry and leaves the receiver untouched so a snapshot
// being read can never change. Transitions naming a peer that doesn't exist
// return the registry unchanged.
type Registry struct {
	nodes []Node
}

// NewRegistry constructs a registry from an existing set of nodes. Nodes
// sharing an ID with an earlier node are dropped.
func NewRegistry(nodes ...Node) Registry {
	var r Registry
	for _, n := range nodes {
		if r.exists(n.ID) {
			continue
		}
		r.nodes = append(r.nodes, n.clone())
	}
	return r
}

// Len returns the number of nodes.
func (r Registry) Len() int {
	return len(r.nodes)
}

// Nodes returns a copy of the nodes in the order they were added. The copy
// shares no memory with the registry.
func (r Registry) Nodes() []Node {
	nodes := make([]Node, len(r.nodes))
	for i, n := range r.nodes {
		nodes[i] = n.clone()
	}
	return nodes
}

// Names returns the peer names in the order they were added.
func (r Registry) Names() []string {
	names := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		names[i] = n.ID
	}
	return names
}

// Node returns a copy of the node for the specified peer.
func (r Registry) Node(id string) (Node, bool) {
	idx := r.index(id)
	if idx == -1 {
		return Node{}, false
	}
	return r.nodes[idx].clone(), true
}

// exists reports if a node for the peer is in the registry.
func (r Registry) exists(id string) bool {
	return r.index(id) != -1
}

// index returns the position of the peer's node or -1.
func (r Registry) index(id string) int {
	for i, n := range r.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================

// Add creates a node holding only the genesis block. The name must not
// already be in use, otherwise the registry is returned unchanged.
func (r Registry) Add(id string) Registry {
	if r.exists(id) {
		return r
	}

	nodes := make([]Node, len(r.nodes), len(r.nodes)+1)
	copy(nodes, r.nodes)

	nodes = append(nodes, Node{
		ID:        id,
		Chain:     genesis.Chain(),
		Connected: []Connection{},
	})

	return Registry{nodes: nodes}
}

// Remove deletes the node and removes it from every other node's
// connections.
func (r Registry) Remove(id string) Registry {
	if !r.exists(id) {
		return r
	}

	nodes := make([]Node, 0, len(r.nodes)-1)
	for _, n := range r.nodes {
		if n.ID == id {
			continue
		}

		if n.IsConnected(id) {
			n = n.clone()
			n.Connected = dropConnection(n.Connected, id)
		}
		nodes = append(nodes, n)
	}

	return Registry{nodes: nodes}
}

// Connect adds an outbound link from one peer to another. Links are one
// directional, a symmetric link needs a second call.
func (r Registry) Connect(from string, to string) Registry {
	return r.update(from, func(n Node) Node {
		n.Connected = append(n.Connected, Connection{Name: to, Inbox: []Message{}})
		return n
	})
}

// Disconnect removes the outbound link from one peer to another.
func (r Registry) Disconnect(from string, to string) Registry {
	return r.update(from, func(n Node) Node {
		n.Connected = dropConnection(n.Connected, to)
		return n
	})
}

// SendMessage appends the message to the connection the sending peer holds
// for the receiving peer.
func (r Registry) SendMessage(from string, to string, msg Message) Registry {
	return r.update(from, func(n Node) Node {
		for i, conn := range n.Connected {
			if conn.Name != to {
				continue
			}

			inbox := make([]Message, len(conn.Inbox), len(conn.Inbox)+1)
			copy(inbox, conn.Inbox)

			n.Connected[i] = Connection{
				Name:  conn.Name,
				Inbox: append(inbox, msg),
			}
		}
		return n
	})
}

// AddBlock appends the block to the peer's chain. No validation is
// performed, that is the caller's responsibility.
func (r Registry) AddBlock(id string, block database.Block) Registry {
	return r.update(id, func(n Node) Node {
		n.Chain = n.Chain.Append(block)
		return n
	})
}

// ReplaceChain overwrites the peer's chain.
func (r Registry) ReplaceChain(id string, chain database.Chain) Registry {
	return r.update(id, func(n Node) Node {
		n.Chain = chain.Clone()
		return n
	})
}

// MutateData overwrites the data of a block in the peer's chain and
// relinks everything after it. The chain is left invalid on purpose.
func (r Registry) MutateData(id string, index int, data string) Registry {
	return r.update(id, func(n Node) Node {
		n.Chain = n.Chain.WithData(index, data)
		return n
	})
}

// ReMine applies a freshly mined solution to a block in the peer's chain
// and relinks everything after it.
func (r Registry) ReMine(id string, index int, nonce uint64, hash string, timeStamp int64) Registry {
	return r.update(id, func(n Node) Node {
		n.Chain = n.Chain.WithMined(index, nonce, hash, timeStamp)
		return n
	})
}

// =============================================================================

// update copies the registry and applies the function to a copy of the
// matching node.
func (r Registry) update(id string, fn func(n Node) Node) Registry {
	idx := r.index(id)
	if idx == -1 {
		return r
	}

	nodes := make([]Node, len(r.nodes))
	copy(nodes, r.nodes)
	nodes[idx] = fn(nodes[idx].clone())

	return Registry{nodes: nodes}
}

// dropConnection returns a new slice without the connections to the peer.
func dropConnection(conns []Connection, name string) []Connection {
	kept := make([]Connection, 0, len(conns))
	for _, conn := range conns {
		if conn.Name != name {
			kept = append(kept, conn)
		}
	}
	return kept
}
