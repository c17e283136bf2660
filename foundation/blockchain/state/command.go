package state

import (
	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
)

// Snapshot represents the full state of the simulated network at a point
// in time. A Snapshot is never modified once it has been handed out.
type Snapshot struct {
	Registry peer.Registry
	Pending  mempool.Pool
}

// =============================================================================

// Command represents one of the state transitions that can be applied to a
// Snapshot. The set of commands is closed, only this package can add one.
type Command interface {
	name() string
}

// AddPeer creates a new node holding only the genesis block.
type AddPeer struct {
	Name string
}

// RemovePeer deletes a node and prunes it from every connection.
type RemovePeer struct {
	Peer string
}

// ConnectPeer adds a one directional link between two peers.
type ConnectPeer struct {
	From string
	To   string
}

// DisconnectPeer removes a link between two peers.
type DisconnectPeer struct {
	From string
	To   string
}

// AddBlock appends a block to a peer's chain without validation.
type AddBlock struct {
	Peer  string
	Block database.Block
}

// ReplaceChain overwrites a peer's chain without validation.
type ReplaceChain struct {
	Peer  string
	Chain database.Chain
}

// SendMessage records a message on the sender's link to the receiver.
type SendMessage struct {
	From    string
	To      string
	Message peer.Message
}

// MutateData tampers with the data of a block in a peer's chain.
type MutateData struct {
	Peer       string
	BlockIndex int
	Data       string
}

// ReMine applies a freshly mined solution to a block in a peer's chain.
type ReMine struct {
	Peer      string
	Index     int
	Nonce     uint64
	Hash      string
	TimeStamp int64
}

// AddTransaction adds a transaction to the pending pool.
type AddTransaction struct {
	Tx mempool.Tx
}

// RemoveTransaction removes every equal transaction from the pending pool.
type RemoveTransaction struct {
	Tx mempool.Tx
}

// ConsumeTransactions removes one occurrence of each transaction mined
// into a block from the pending pool.
type ConsumeTransactions struct {
	Trans []mempool.Tx
}

func (AddPeer) name() string             { return "AddPeer" }
func (RemovePeer) name() string          { return "RemovePeer" }
func (ConnectPeer) name() string         { return "ConnectPeer" }
func (DisconnectPeer) name() string      { return "DisconnectPeer" }
func (AddBlock) name() string            { return "AddBlock" }
func (ReplaceChain) name() string        { return "ReplaceChain" }
func (SendMessage) name() string         { return "SendMessage" }
func (MutateData) name() string          { return "MutateData" }
func (ReMine) name() string              { return "ReMine" }
func (AddTransaction) name() string      { return "AddTransaction" }
func (RemoveTransaction) name() string   { return "RemoveTransaction" }
func (ConsumeTransactions) name() string { return "ConsumeTransactions" }

// =============================================================================

// Reduce applies the command to the snapshot and returns the new snapshot.
// Reduce never fails and never modifies the snapshot it is given.
func Reduce(s Snapshot, cmd Command) Snapshot {
	switch c := cmd.(type) {
	case AddPeer:
		s.Registry = s.Registry.Add(c.Name)

	case RemovePeer:
		s.Registry = s.Registry.Remove(c.Peer)

	case ConnectPeer:
		s.Registry = s.Registry.Connect(c.From, c.To)

	case DisconnectPeer:
		s.Registry = s.Registry.Disconnect(c.From, c.To)

	case AddBlock:
		s.Registry = s.Registry.AddBlock(c.Peer, c.Block)

	case ReplaceChain:
		s.Registry = s.Registry.ReplaceChain(c.Peer, c.Chain)

	case SendMessage:
		s.Registry = s.Registry.SendMessage(c.From, c.To, c.Message)

	case MutateData:
		s.Registry = s.Registry.MutateData(c.Peer, c.BlockIndex, c.Data)

	case ReMine:
		s.Registry = s.Registry.ReMine(c.Peer, c.Index, c.Nonce, c.Hash, c.TimeStamp)

	case AddTransaction:
		s.Pending = s.Pending.Add(c.Tx)

	case RemoveTransaction:
		s.Pending = s.Pending.Remove(c.Tx)

	case ConsumeTransactions:
		s.Pending = s.Pending.Consume(c.Trans)
	}

	return s
}
