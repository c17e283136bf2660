package state

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
)

// MiningJob describes a proof of work search for a peer. A job either mines
// the next block on the peer's tip or re-mines a block already in its chain.
type MiningJob struct {
	Peer         string
	Index        uint64
	PreviousHash string
	Data         string
	ReMine       bool
	Trans        []mempool.Tx
}

// String implements the fmt.Stringer interface for logging.
func (j MiningJob) String() string {
	if j.ReMine {
		return fmt.Sprintf("remine:%s:%d", j.Peer, j.Index)
	}
	return fmt.Sprintf("mine:%s:%d", j.Peer, j.Index)
}

// =============================================================================

// MineBlock signals the worker to mine a new block holding data on top of
// the peer's current tip. The result is processed when the search finishes.
func (s *State) MineBlock(name string, data string) (MiningJob, error) {
	job, err := s.prepareMining(name, data, nil)
	if err != nil {
		return MiningJob{}, err
	}

	return job, s.signalStartMining(job)
}

// MinePending signals the worker to mine a new block holding every pending
// transaction. The transactions leave the pool once the block is accepted
// on the peer's chain.
func (s *State) MinePending(name string) (MiningJob, error) {
	s.mu.Lock()
	trans := s.snapshot.Pending.Copy()
	s.mu.Unlock()

	if len(trans) == 0 {
		return MiningJob{}, ErrNoTransactions
	}

	data, err := mempool.Encode(trans)
	if err != nil {
		return MiningJob{}, err
	}

	job, err := s.prepareMining(name, data, trans)
	if err != nil {
		return MiningJob{}, err
	}

	return job, s.signalStartMining(job)
}

// MineNewBlock mines a new block for the peer and processes it before
// returning. This blocks for as long as the search takes and can be
// cancelled through the context.
func (s *State) MineNewBlock(ctx context.Context, name string, data string) (database.Block, error) {
	job, err := s.prepareMining(name, data, nil)
	if err != nil {
		return database.Block{}, err
	}

	block, err := s.Mine(ctx, job)
	if err != nil {
		return database.Block{}, err
	}

	if err := s.ProcessMinedBlock(job, block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Mine performs the proof of work search for the job. It does not touch the
// state so it can run on any goroutine.
func (s *State) Mine(ctx context.Context, job MiningJob) (database.Block, error) {
	s.evHandler("state: Mine: MINING: started: job[%s]", job)
	defer s.evHandler("state: Mine: MINING: completed: job[%s]", job)

	return database.POW(ctx, database.POWArgs{
		Index:        job.Index,
		PreviousHash: job.PreviousHash,
		Data:         job.Data,
		EvHandler:    s.evHandler,
	})
}

// ProcessMinedBlock takes a block mined for the peer and, if it still fits
// the peer's tip, appends it and shares it with the peer's connections.
func (s *State) ProcessMinedBlock(job MiningJob, block database.Block) error {
	s.evHandler("state: ProcessMinedBlock: started: job[%s]: blk[%s]", job, block.Hash)
	defer s.evHandler("state: ProcessMinedBlock: completed: job[%s]", job)

	if err := s.acceptMinedBlock(job, block); err != nil {
		return err
	}

	s.broadcast(job.Peer)

	return nil
}

// ProposeBlock takes a block received from elsewhere and applies the
// consensus rules against the peer's chain.
func (s *State) ProposeBlock(name string, block database.Block) (Decision, error) {
	return s.propose(name, Candidate{Block: &block})
}

// ProposeChain takes a chain received from elsewhere and applies the
// consensus rules against the peer's chain.
func (s *State) ProposeChain(name string, chain database.Chain) (Decision, error) {
	return s.propose(name, Candidate{Chain: chain})
}

// =============================================================================

// prepareMining builds a job to mine the next block on the peer's tip. The
// peer's chain must be valid.
func (s *State) prepareMining(name string, data string, trans []mempool.Tx) (MiningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(name)
	if err != nil {
		return MiningJob{}, err
	}

	// A block mined on an unsolved tip can never be accepted. The chain has
	// to be re-mined first.
	if !database.IsValidChain(node.Chain, s.genesis) {
		s.evHandler("viewer: mine: peer[%s]: chain invalid: re-mine before mining", name)
		return MiningJob{}, fmt.Errorf("%s: %w", name, ErrInvalidChain)
	}

	tip, _ := node.Chain.Tip()

	job := MiningJob{
		Peer:         name,
		Index:        tip.Index + 1,
		PreviousHash: tip.Hash,
		Data:         data,
		Trans:        trans,
	}

	return job, nil
}

// signalStartMining hands the job to the worker.
func (s *State) signalStartMining(job MiningJob) error {
	if s.Worker == nil {
		return ErrNoWorker
	}

	s.Worker.SignalStartMining(job)
	s.evHandler("state: signalStartMining: job[%s]", job)

	return nil
}

// acceptMinedBlock appends the block if it is still a valid next block for
// the peer. One pending entry is removed for each mined transaction so
// equal transactions submitted during the search stay pending.
func (s *State) acceptMinedBlock(job MiningJob, block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(job.Peer)
	if err != nil {
		return err
	}

	// Another chain may have been accepted while we were mining.
	if d := Resolve(node.Chain, Candidate{Block: &block}, s.genesis); d != DecisionAppend {
		s.evHandler("state: acceptMinedBlock: job[%s]: %s", job, d)
		return fmt.Errorf("%s: %w", job, ErrStaleBlock)
	}

	s.commit(AddBlock{Peer: job.Peer, Block: block})

	if len(job.Trans) > 0 {
		s.commit(ConsumeTransactions{Trans: job.Trans})
	}

	s.evHandler("viewer: block: peer[%s]: blk[%d]: hash[%s]", job.Peer, block.Index, block.Hash)

	return nil
}

// propose applies the consensus rules for a single candidate and peer.
func (s *State) propose(name string, c Candidate) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(name)
	if err != nil {
		return DecisionReject, err
	}

	d := s.resolve(node, c)

	s.evHandler("state: propose: peer[%s]: decision[%s]", name, d)

	return d, nil
}

// resolve decides what to do with the candidate and applies the decision.
// The caller must be holding mu.
func (s *State) resolve(node peer.Node, c Candidate) Decision {
	d := Resolve(node.Chain, c, s.genesis)

	switch d {
	case DecisionAppend:
		s.signalCancelMining(node.ID)
		s.commit(AddBlock{Peer: node.ID, Block: *c.Block})

	case DecisionReplace:
		s.signalCancelMining(node.ID)
		s.commit(ReplaceChain{Peer: node.ID, Chain: c.Chain})
	}

	return d
}

// broadcast shares the peer's tip and chain with every connected peer. Any
// peer whose chain changed relays it to its own connections. This ends since
// a peer only changes when it receives something strictly longer or a block
// that extends its tip.
func (s *State) broadcast(origin string) {
	s.evHandler("state: broadcast: started: origin[%s]", origin)
	defer s.evHandler("state: broadcast: completed: origin[%s]", origin)

	queue := []string{origin}
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]

		for _, to := range s.share(from) {
			queue = append(queue, to)
		}
	}
}

// share sends the sender's tip to each of its connections and applies the
// consensus rules on each receiver. It returns the receivers that changed.
func (s *State) share(from string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, exists := s.snapshot.Registry.Node(from)
	if !exists {
		return nil
	}

	tip, _ := sender.Chain.Tip()

	var changed []string
	for _, to := range sender.ConnectedNames() {
		receiver, exists := s.snapshot.Registry.Node(to)
		if !exists {
			continue
		}

		s.commit(SendMessage{
			From: from,
			To:   to,
			Message: peer.Message{
				Kind:        peer.KindBlock,
				From:        from,
				To:          to,
				Text:        fmt.Sprintf("mined block #%d", tip.Index),
				Block:       tip,
				ChainLength: len(sender.Chain),
				TimeStamp:   time.Now().UnixMilli(),
			},
		})

		block := tip
		d := s.resolve(receiver, Candidate{Block: &block, Chain: sender.Chain})

		s.evHandler("state: share: from[%s]: to[%s]: decision[%s]", from, to, d)

		if d == DecisionAppend || d == DecisionReplace {
			changed = append(changed, to)
		}
	}

	return changed
}
