// Package state is the core API for the blockchain demo and implements all
// the business rules and processing for the simulated network.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of the network.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining(job MiningJob)
	SignalCancelMining(peer string)
}

// NameGenerator interface represents the behavior required to be implemented
// by any package providing names for new peers.
type NameGenerator interface {
	Generate(existing []string) string
}

// =============================================================================

// Config represents the configuration required to start the network.
type Config struct {
	InitialPeers []string
	Connections  [][2]string
	Names        NameGenerator
	Storage      storage.Storage
	EvHandler    EventHandler
}

// State manages the simulated network. Every change is applied through a
// Command while holding mu so changes never interleave. Readers are handed
// immutable snapshots.
type State struct {
	mu        sync.Mutex
	snapshot  Snapshot
	genesis   database.Block
	names     NameGenerator
	storage   storage.Storage
	evHandler EventHandler

	Worker Worker
}

// New constructs the state for the network. The genesis block is verified
// first and New fails if its hash can't be reproduced.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// The genesis hash binds the hash algorithm and the difficulty. If we
	// can't reproduce it nothing else will validate.
	if err := genesis.Verify(); err != nil {
		return nil, err
	}

	s := State{
		genesis:   genesis.Block(),
		names:     cfg.Names,
		storage:   cfg.Storage,
		evHandler: ev,
	}

	// Restore the network from storage if there is something saved.
	if cfg.Storage != nil {
		snap, err := cfg.Storage.Load()
		switch {
		case err == nil:
			s.snapshot = Snapshot{
				Registry: peer.NewRegistry(snap.Nodes...),
				Pending:  mempool.New(snap.Pending...),
			}
			ev("state: New: restored: peers[%d]: pending[%d]", s.snapshot.Registry.Len(), s.snapshot.Pending.Count())
			return &s, nil

		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}

	// Seed the network with the initial set of peers and their links.
	for _, name := range cfg.InitialPeers {
		if _, exists := s.snapshot.Registry.Node(name); exists {
			return nil, fmt.Errorf("initial peer %q: %w", name, ErrDuplicatePeer)
		}
		s.commit(AddPeer{Name: name})
	}
	for _, link := range cfg.Connections {
		if err := s.ConnectPeer(link[0], link[1]); err != nil {
			return nil, fmt.Errorf("initial connection %s->%s: %w", link[0], link[1], err)
		}
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start the mining support for the network.

	return &s, nil
}

// Shutdown cleanly brings the network down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all mining activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the storage is properly closed.
	if s.storage != nil {
		return s.storage.Close()
	}

	return nil
}

// Apply reduces the command into the network without any of the checks the
// named operations perform. Unknown peers leave the network unchanged.
func (s *State) Apply(cmd Command) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(cmd)
}

// =============================================================================

// commit reduces the command into a new snapshot and saves it. The caller
// must be holding mu, except during construction.
func (s *State) commit(cmd Command) Snapshot {
	s.snapshot = Reduce(s.snapshot, cmd)
	s.evHandler("viewer: state: commit: %s", cmd.name())

	if s.storage != nil {
		snap := storage.Snapshot{
			Nodes:   s.snapshot.Registry.Nodes(),
			Pending: s.snapshot.Pending.Copy(),
		}
		if err := s.storage.Save(snap); err != nil {
			s.evHandler("state: commit: %s: WARNING: unable to save snapshot: %s", cmd.name(), err)
		}
	}

	return s.snapshot
}

// signalCancelMining asks the worker to abandon any search for the peer.
func (s *State) signalCancelMining(peer string) {
	if s.Worker != nil {
		s.Worker.SignalCancelMining(peer)
	}
}
