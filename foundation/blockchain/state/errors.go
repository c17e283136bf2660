package state

import "errors"

// Set of errors returned when a request can't be applied to the network.
var (
	ErrPeerNotFound     = errors.New("peer not found")
	ErrDuplicatePeer    = errors.New("peer name already in use")
	ErrSelfConnect      = errors.New("peer can't connect to itself")
	ErrAlreadyConnected = errors.New("peers already connected")
	ErrNotConnected     = errors.New("peers not connected")
	ErrBlockNotFound    = errors.New("block not found")
	ErrGenesisBlock     = errors.New("genesis block can't be changed")
	ErrNoTransactions   = errors.New("no transactions in mempool")
	ErrNoWorker         = errors.New("mining worker not running")
	ErrStaleBlock       = errors.New("mined block no longer fits the chain")
	ErrNoNames          = errors.New("no name generator configured")
	ErrInvalidChain     = errors.New("chain must be valid before mining on it")
)
