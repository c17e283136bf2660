// Package disk implements the ability to save and load the network state
// on disk using a pebble key/value store.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/storage"
	"github.com/cockroachdb/pebble"
)

// Key prefixes used to group the records.
const (
	prefixNode    = "node:"
	keyPending    = "pending"
	keyNodeOrder  = "order"
	defaultPerm   = 0755
	cacheCapacity = 16 << 20
)

// Disk represents the storage implementation for saving the network state
// in a pebble database. This implements the storage.Storage interface.
type Disk struct {
	db *pebble.DB
}

// New opens or creates the pebble database at the specified path.
func New(path string) (*Disk, error) {
	if err := os.MkdirAll(path, defaultPerm); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	cache := pebble.NewCache(cacheCapacity)
	defer cache.Unref()

	db, err := pebble.Open(path, &pebble.Options{Cache: cache})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Disk{db: db}, nil
}

// Close cleanly releases the database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Save writes every node and the pending transactions in a single batch.
// Nodes that no longer exist are removed.
func (d *Disk) Save(snapshot storage.Snapshot) error {
	batch := d.db.NewBatch()
	defer batch.Close()

	prefix := []byte(prefixNode)
	if err := batch.DeleteRange(prefix, prefixUpperBound(prefix), nil); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}

	order := make([]string, len(snapshot.Nodes))
	for i, node := range snapshot.Nodes {
		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", node.ID, err)
		}

		if err := batch.Set(nodeKey(node.ID), data, nil); err != nil {
			return err
		}
		order[i] = node.ID
	}

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if err := batch.Set([]byte(keyNodeOrder), data, nil); err != nil {
		return err
	}

	data, err = json.Marshal(snapshot.Pending)
	if err != nil {
		return fmt.Errorf("marshal pending: %w", err)
	}
	if err := batch.Set([]byte(keyPending), data, nil); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

// Load reads the nodes back in the order they were saved along with the
// pending transactions.
func (d *Disk) Load() (storage.Snapshot, error) {
	var order []string
	if err := d.get([]byte(keyNodeOrder), &order); err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return storage.Snapshot{}, storage.ErrNotFound
		}
		return storage.Snapshot{}, err
	}

	nodes := make([]peer.Node, 0, len(order))
	for _, id := range order {
		var node peer.Node
		if err := d.get(nodeKey(id), &node); err != nil {
			return storage.Snapshot{}, fmt.Errorf("node %s: %w", id, err)
		}
		nodes = append(nodes, node)
	}

	var pending []mempool.Tx
	if err := d.get([]byte(keyPending), &pending); err != nil && !errors.Is(err, pebble.ErrNotFound) {
		return storage.Snapshot{}, err
	}

	return storage.Snapshot{Nodes: nodes, Pending: pending}, nil
}

// =============================================================================

// get retrieves the value for the key and unmarshals it.
func (d *Disk) get(key []byte, v any) error {
	value, closer, err := d.db.Get(key)
	if err != nil {
		return err
	}
	defer closer.Close()

	// The value is only valid until closer.Close() so decode it here.
	return json.Unmarshal(value, v)
}

// nodeKey creates the key for the specified node.
func nodeKey(id string) []byte {
	return []byte(prefixNode + id)
}

// prefixUpperBound returns the upper bound for prefix iteration.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
