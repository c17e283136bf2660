package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
)

// MutateData tampers with the data of a block in the peer's chain. The
// block and everything after it are rehashed with their stale nonces so the
// chain is normally left invalid until each block is re-mined.
func (s *State) MutateData(name string, index int, data string) (database.Chain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(name)
	if err != nil {
		return nil, err
	}
	if _, err := node.Chain.BlockAt(index); err != nil {
		return nil, fmt.Errorf("%s: index %d: %w", name, index, ErrBlockNotFound)
	}

	s.signalCancelMining(name)
	snap := s.commit(MutateData{Peer: name, BlockIndex: index, Data: data})
	node, _ = snap.Registry.Node(name)

	s.evHandler("viewer: tamper: peer[%s]: blk[%d]", name, index)

	return node.Chain, nil
}

// ReMine applies a solution for the block at index in the peer's chain.
// The solution is not checked, use RequestReMine to have one searched for.
func (s *State) ReMine(name string, index int, nonce uint64, hash string, timeStamp int64) (database.Chain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(name)
	if err != nil {
		return nil, err
	}
	if index == 0 {
		return nil, ErrGenesisBlock
	}
	if _, err := node.Chain.BlockAt(index); err != nil {
		return nil, fmt.Errorf("%s: index %d: %w", name, index, ErrBlockNotFound)
	}

	snap := s.commit(ReMine{Peer: name, Index: index, Nonce: nonce, Hash: hash, TimeStamp: timeStamp})
	node, _ = snap.Registry.Node(name)

	return node.Chain, nil
}

// RequestReMine signals the worker to find a new solution for the block at
// index in the peer's chain.
func (s *State) RequestReMine(name string, index int) (MiningJob, error) {
	job, err := s.prepareReMine(name, index)
	if err != nil {
		return MiningJob{}, err
	}

	return job, s.signalStartMining(job)
}

// ReMineBlock finds a new solution for the block at index and applies it
// before returning.
func (s *State) ReMineBlock(ctx context.Context, name string, index int) (database.Chain, error) {
	job, err := s.prepareReMine(name, index)
	if err != nil {
		return nil, err
	}

	block, err := s.Mine(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := s.ProcessReMinedBlock(job, block); err != nil {
		return nil, err
	}

	node, _ := s.RetrieveNode(name)
	return node.Chain, nil
}

// ProcessReMinedBlock applies a solution found by the worker. The solution
// is dropped if the block changed while the search was running.
func (s *State) ProcessReMinedBlock(job MiningJob, block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(job.Peer)
	if err != nil {
		return err
	}

	current, err := node.Chain.BlockAt(int(job.Index))
	if err != nil {
		return fmt.Errorf("%s: %w", job, ErrStaleBlock)
	}
	if current.Data != job.Data || current.PreviousHash != job.PreviousHash {
		return fmt.Errorf("%s: %w", job, ErrStaleBlock)
	}

	s.commit(ReMine{
		Peer:      job.Peer,
		Index:     int(job.Index),
		Nonce:     block.Nonce,
		Hash:      block.Hash,
		TimeStamp: block.TimeStamp,
	})

	s.evHandler("viewer: remine: peer[%s]: blk[%d]: hash[%s]", job.Peer, job.Index, block.Hash)

	return nil
}

// =============================================================================

// prepareReMine builds a job to search for a new solution for the block at
// index using the data and link the block holds right now.
func (s *State) prepareReMine(name string, index int) (MiningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.requireNode(name)
	if err != nil {
		return MiningJob{}, err
	}
	if index == 0 {
		return MiningJob{}, ErrGenesisBlock
	}

	block, err := node.Chain.BlockAt(index)
	if err != nil {
		return MiningJob{}, fmt.Errorf("%s: index %d: %w", name, index, ErrBlockNotFound)
	}

	job := MiningJob{
		Peer:         name,
		Index:        block.Index,
		PreviousHash: block.PreviousHash,
		Data:         block.Data,
		ReMine:       true,
	}

	return job, nil
}
