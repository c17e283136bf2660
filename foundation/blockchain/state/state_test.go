package state_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/state"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/blockdemo/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func should(t *testing.T, ok bool, msg string, args ...any) {
	t.Helper()
	if !ok {
		t.Fatalf("\t%s\t"+msg, append([]any{failed}, args...)...)
	}
	t.Logf("\t%s\t"+msg, append([]any{success}, args...)...)
}

func shouldFailWith(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Logf("\t%s\tgot: %v", failed, err)
		t.Logf("\t%s\texp: %v", failed, target)
		t.Fatalf("\t%s\tShould fail with %q.", failed, target)
	}
	t.Logf("\t%s\tShould fail with %q.", success, target)
}

func newState(t *testing.T, cfg state.Config) *state.State {
	t.Helper()

	cfg.EvHandler = func(v string, args ...any) {
		t.Logf(v, args...)
	}

	st, err := state.New(cfg)
	ifErrFailNow(t, err)

	t.Cleanup(func() { st.Shutdown() })

	return st
}

func retrieve(t *testing.T, st *state.State, name string) peer.Node {
	t.Helper()

	node, err := st.RetrieveNode(name)
	ifErrFailNow(t, err)

	return node
}

// fixedNames always hands out the same name.
type fixedNames string

func (f fixedNames) Generate([]string) string { return string(f) }

// recorder is a worker that remembers what it was asked to do.
type recorder struct {
	started   []state.MiningJob
	cancelled []string
}

func (r *recorder) Shutdown()                             {}
func (r *recorder) SignalStartMining(job state.MiningJob) { r.started = append(r.started, job) }
func (r *recorder) SignalCancelMining(peer string)        { r.cancelled = append(r.cancelled, peer) }

// =============================================================================

func Test_ReduceDoesNotMutate(t *testing.T) {
	tx := mempool.Tx{From: "Satoshi", To: "Hal", Amount: 10}

	t.Log("Given the need to apply commands without changing prior snapshots.")
	{
		var before state.Snapshot
		before = state.Reduce(before, state.AddPeer{Name: "Satoshi"})
		before = state.Reduce(before, state.AddPeer{Name: "Hal"})
		before = state.Reduce(before, state.AddTransaction{Tx: tx})

		after := state.Reduce(before, state.ConnectPeer{From: "Satoshi", To: "Hal"})
		after = state.Reduce(after, state.AddBlock{Peer: "Hal", Block: genesis.Block()})
		after = state.Reduce(after, state.RemoveTransaction{Tx: tx})
		after = state.Reduce(after, state.MutateData{Peer: "Satoshi", BlockIndex: 0, Data: "tampered"})

		satoshi, _ := before.Registry.Node("Satoshi")
		should(t, len(satoshi.Connected) == 0, "Should not add a connection to the prior snapshot.")
		should(t, satoshi.Chain[0] == genesis.Block(), "Should not tamper with the prior snapshot chain.")

		hal, _ := before.Registry.Node("Hal")
		should(t, len(hal.Chain) == 1, "Should not grow the prior snapshot chain.")
		should(t, before.Pending.Count() == 1, "Should not drop a transaction from the prior snapshot.")

		satoshi, _ = after.Registry.Node("Satoshi")
		should(t, satoshi.IsConnected("Hal"), "Should connect in the new snapshot.")
		should(t, satoshi.Chain[0].Data == "tampered", "Should tamper in the new snapshot.")
		should(t, after.Pending.Count() == 0, "Should remove the transaction in the new snapshot.")
	}
}

func Test_ReduceUnknownPeer(t *testing.T) {
	t.Log("Given the need to ignore commands for peers that don't exist.")
	{
		var snap state.Snapshot
		snap = state.Reduce(snap, state.AddPeer{Name: "Satoshi"})

		after := state.Reduce(snap, state.AddBlock{Peer: "Nobody", Block: genesis.Block()})
		after = state.Reduce(after, state.ConnectPeer{From: "Nobody", To: "Satoshi"})

		should(t, reflect.DeepEqual(snap.Registry.Nodes(), after.Registry.Nodes()), "Should leave the registry unchanged.")
	}
}

func Test_RetrievedNodesAreCopies(t *testing.T) {
	t.Log("Given the need to hand readers values that can't change the network.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi", "Hal"},
			Connections:  [][2]string{{"Satoshi", "Hal"}},
		})

		_, err := st.MineNewBlock(context.Background(), "Satoshi", "mined")
		ifErrFailNow(t, err)

		node := retrieve(t, st, "Satoshi")
		node.Chain[1].Data = "changed by reader"
		node.Connected[0].Inbox[0].Text = "changed by reader"

		nodes := st.RetrieveNodes()
		nodes[1].Chain[1].Data = "changed by reader"

		chain, err := st.MutateData("Satoshi", 1, "tampered")
		ifErrFailNow(t, err)
		chain[0].Data = "changed by reader"

		node = retrieve(t, st, "Satoshi")
		should(t, node.Chain[1].Data == "tampered", "Should keep the stored data after a reader changes its copy.")
		should(t, node.Chain[0] == genesis.Block(), "Should keep genesis after a reader changes a returned chain.")
		should(t, node.Connected[0].Inbox[0].Text != "changed by reader", "Should keep the stored messages.")

		hal := retrieve(t, st, "Hal")
		should(t, hal.Chain[1].Data == "mined", "Should keep the stored data after a reader changes RetrieveNodes.")

		valid, _, err := st.ValidateChain("Satoshi")
		ifErrFailNow(t, err)
		should(t, !valid, "Should still report the tampered chain as invalid.")
	}
}

func Test_AddPeer(t *testing.T) {
	t.Log("Given the need to add peers with generated names.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
			Names:        nameservice.New("Satoshi", "Hal", "Nick"),
		})

		seen := map[string]bool{"Satoshi": true}
		for i := 0; i < 6; i++ {
			node, err := st.AddPeer("")
			ifErrFailNow(t, err)
			should(t, !seen[node.ID], "Should hand out an unused name: %s", node.ID)
			should(t, len(node.Chain) == 1, "Should start %s with only genesis.", node.ID)
			seen[node.ID] = true
		}
		should(t, len(st.RetrieveNodes()) == 7, "Should hold every peer.")

		_, err := st.AddPeer("Hal")
		shouldFailWith(t, err, state.ErrDuplicatePeer)
	}
}

func Test_AddPeerGeneratorCollision(t *testing.T) {
	t.Log("Given the need to refuse a generated name already in use.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
			Names:        fixedNames("Satoshi"),
		})

		_, err := st.AddPeer("")
		shouldFailWith(t, err, state.ErrDuplicatePeer)
		should(t, len(st.RetrieveNodes()) == 1, "Should leave the network unchanged.")

		noNames := newState(t, state.Config{})
		_, err = noNames.AddPeer("")
		shouldFailWith(t, err, state.ErrNoNames)
	}
}

func Test_Connections(t *testing.T) {
	t.Log("Given the need to link peers and send messages.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi", "Hal"},
			Connections:  [][2]string{{"Satoshi", "Hal"}},
		})

		shouldFailWith(t, st.ConnectPeer("Satoshi", "Hal"), state.ErrAlreadyConnected)
		shouldFailWith(t, st.ConnectPeer("Satoshi", "Satoshi"), state.ErrSelfConnect)
		shouldFailWith(t, st.ConnectPeer("Satoshi", "Nick"), state.ErrPeerNotFound)
		shouldFailWith(t, st.SendMessage("Hal", "Satoshi", "hi"), state.ErrNotConnected)

		ifErrFailNow(t, st.SendMessage("Satoshi", "Hal", "hi"))
		node := retrieve(t, st, "Satoshi")
		should(t, len(node.Connected[0].Inbox) == 1, "Should record the message on the link.")
		should(t, node.Connected[0].Inbox[0].Kind == peer.KindText, "Should record a text message.")

		ifErrFailNow(t, st.RemovePeer("Hal"))
		node = retrieve(t, st, "Satoshi")
		should(t, len(node.Connected) == 0, "Should drop links to a removed peer.")

		shouldFailWith(t, st.DisconnectPeer("Satoshi", "Hal"), state.ErrNotConnected)
	}
}

func Test_MineAndBroadcast(t *testing.T) {
	t.Log("Given the need to share a mined block through the connections.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi", "Hal", "Nick", "Adam"},
			Connections:  [][2]string{{"Satoshi", "Hal"}, {"Hal", "Nick"}},
		})

		block, err := st.MineNewBlock(context.Background(), "Satoshi", "first block")
		ifErrFailNow(t, err)
		should(t, block.Index == 1, "Should mine block 1.")
		should(t, block.PreviousHash == genesis.Hash, "Should link the block to genesis.")

		for _, name := range []string{"Satoshi", "Hal", "Nick"} {
			node := retrieve(t, st, name)
			should(t, len(node.Chain) == 2 && node.Chain[1] == block, "Should deliver the block to %s.", name)
		}

		adam := retrieve(t, st, "Adam")
		should(t, len(adam.Chain) == 1, "Should not deliver the block to an unconnected peer.")

		satoshi := retrieve(t, st, "Satoshi")
		inbox := satoshi.Connected[0].Inbox
		should(t, len(inbox) == 1 && inbox[0].Kind == peer.KindBlock, "Should record a block message.")
		should(t, inbox[0].Block == block, "Should carry the mined block in the message.")
	}
}

func Test_Consensus(t *testing.T) {
	t.Log("Given the need to resolve competing chains.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi", "Hal"},
		})
		ctx := context.Background()

		_, err := st.MineNewBlock(ctx, "Satoshi", "satoshi block")
		ifErrFailNow(t, err)
		_, err = st.MineNewBlock(ctx, "Hal", "hal block")
		ifErrFailNow(t, err)

		satoshi := retrieve(t, st, "Satoshi")

		d, err := st.ProposeChain("Hal", satoshi.Chain)
		ifErrFailNow(t, err)
		should(t, d == state.DecisionIgnore, "Should ignore a chain of equal length.")
		should(t, retrieve(t, st, "Hal").Chain[1].Data == "hal block", "Should keep the local chain.")

		_, err = st.MineNewBlock(ctx, "Satoshi", "satoshi second block")
		ifErrFailNow(t, err)
		satoshi = retrieve(t, st, "Satoshi")

		tip, _ := satoshi.Chain.Tip()
		d, err = st.ProposeBlock("Hal", tip)
		ifErrFailNow(t, err)
		should(t, d == state.DecisionReject, "Should reject a block that doesn't fit the tip.")

		d, err = st.ProposeChain("Hal", satoshi.Chain)
		ifErrFailNow(t, err)
		should(t, d == state.DecisionReplace, "Should replace with a longer valid chain.")
		should(t, reflect.DeepEqual(satoshi.Chain, retrieve(t, st, "Hal").Chain), "Should hold the longer chain.")

		_, err = st.ProposeBlock("Nobody", tip)
		shouldFailWith(t, err, state.ErrPeerNotFound)
	}
}

func Test_ConsensusCancelsMining(t *testing.T) {
	t.Log("Given the need to abandon a search when the peer's chain changes.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi", "Hal"},
		})
		ctx := context.Background()

		for _, data := range []string{"one", "two"} {
			_, err := st.MineNewBlock(ctx, "Satoshi", data)
			ifErrFailNow(t, err)
		}
		satoshi := retrieve(t, st, "Satoshi")

		w := &recorder{}
		st.Worker = w

		_, err := st.MineBlock("Hal", "in flight")
		ifErrFailNow(t, err)
		should(t, len(w.started) == 1, "Should hand the job to the worker.")

		d, err := st.ProposeChain("Hal", satoshi.Chain)
		ifErrFailNow(t, err)
		should(t, d == state.DecisionReplace, "Should replace with the longer chain.")
		should(t, reflect.DeepEqual(w.cancelled, []string{"Hal"}), "Should cancel Hal's mining on replace: %v", w.cancelled)

		tip, _ := retrieve(t, st, "Hal").Chain.Tip()
		next, err := database.GenerateNextBlock(ctx, tip, "three", nil)
		ifErrFailNow(t, err)

		d, err = st.ProposeBlock("Hal", next)
		ifErrFailNow(t, err)
		should(t, d == state.DecisionAppend, "Should append a block extending the tip.")
		should(t, reflect.DeepEqual(w.cancelled, []string{"Hal", "Hal"}), "Should cancel Hal's mining on append: %v", w.cancelled)

		d, err = st.ProposeChain("Hal", satoshi.Chain)
		ifErrFailNow(t, err)
		should(t, d == state.DecisionReject, "Should reject a shorter chain.")

		d, err = st.ProposeBlock("Hal", next)
		ifErrFailNow(t, err)
		should(t, d != state.DecisionAppend && d != state.DecisionReplace, "Should not accept the same block twice.")
		should(t, len(w.cancelled) == 2, "Should not cancel mining when nothing changed: %v", w.cancelled)
	}
}

func Test_MineInvalidChain(t *testing.T) {
	t.Log("Given the need to refuse mining on a tampered chain.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})
		ctx := context.Background()

		_, err := st.MineNewBlock(ctx, "Satoshi", "one")
		ifErrFailNow(t, err)
		_, err = st.MutateData("Satoshi", 1, "tampered")
		ifErrFailNow(t, err)

		w := &recorder{}
		st.Worker = w

		_, err = st.MineBlock("Satoshi", "on top")
		shouldFailWith(t, err, state.ErrInvalidChain)
		should(t, len(w.started) == 0, "Should not hand the job to the worker.")

		_, err = st.MineNewBlock(ctx, "Satoshi", "on top")
		shouldFailWith(t, err, state.ErrInvalidChain)

		_, err = st.ReMineBlock(ctx, "Satoshi", 1)
		ifErrFailNow(t, err)

		_, err = st.MineBlock("Satoshi", "on top")
		ifErrFailNow(t, err)
		should(t, len(w.started) == 1, "Should mine again once the chain is re-mined.")
	}
}

func Test_StaleMinedBlock(t *testing.T) {
	t.Log("Given the need to drop a block mined on a tip that moved.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})
		ctx := context.Background()

		job := state.MiningJob{
			Peer:         "Satoshi",
			Index:        1,
			PreviousHash: genesis.Hash,
			Data:         "late block",
		}
		late, err := st.Mine(ctx, job)
		ifErrFailNow(t, err)

		_, err = st.MineNewBlock(ctx, "Satoshi", "winning block")
		ifErrFailNow(t, err)

		shouldFailWith(t, st.ProcessMinedBlock(job, late), state.ErrStaleBlock)

		node := retrieve(t, st, "Satoshi")
		should(t, len(node.Chain) == 2 && node.Chain[1].Data == "winning block", "Should keep the winning block.")
	}
}

func Test_MineCancelled(t *testing.T) {
	t.Log("Given the need to stop a search through the context.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := st.MineNewBlock(ctx, "Satoshi", "never mined")
		shouldFailWith(t, err, context.Canceled)
	}
}

func Test_TamperAndReMine(t *testing.T) {
	t.Log("Given the need to tamper with a chain and repair it.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})
		ctx := context.Background()

		for _, data := range []string{"one", "two", "three"} {
			_, err := st.MineNewBlock(ctx, "Satoshi", data)
			ifErrFailNow(t, err)
		}

		valid, _, err := st.ValidateChain("Satoshi")
		ifErrFailNow(t, err)
		should(t, valid, "Should start with a valid chain.")

		chain, err := st.MutateData("Satoshi", 1, "tampered")
		ifErrFailNow(t, err)
		should(t, chain[1].Data == "tampered", "Should change the block data.")
		for i := 2; i < len(chain); i++ {
			should(t, chain[i].PreviousHash == chain[i-1].Hash, "Should relink block %d.", i)
		}

		valid, statuses, err := st.ValidateChain("Satoshi")
		ifErrFailNow(t, err)
		should(t, !valid, "Should report the tampered chain as invalid.")
		should(t, statuses[0].Valid, "Should keep genesis valid.")

		for i := 1; i < len(chain); i++ {
			_, err := st.ReMineBlock(ctx, "Satoshi", i)
			ifErrFailNow(t, err)
		}

		valid, statuses, err = st.ValidateChain("Satoshi")
		ifErrFailNow(t, err)
		should(t, valid, "Should report the re-mined chain as valid.")
		for _, s := range statuses {
			should(t, s.Valid && s.Solved, "Should solve block %d.", s.Index)
		}

		_, err = st.MutateData("Satoshi", 9, "missing")
		shouldFailWith(t, err, state.ErrBlockNotFound)

		_, err = st.RequestReMine("Satoshi", 0)
		shouldFailWith(t, err, state.ErrGenesisBlock)
	}
}

func Test_StaleReMinedBlock(t *testing.T) {
	t.Log("Given the need to drop a solution for a block that changed.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})
		ctx := context.Background()

		_, err := st.MineNewBlock(ctx, "Satoshi", "one")
		ifErrFailNow(t, err)

		_, err = st.MutateData("Satoshi", 1, "first edit")
		ifErrFailNow(t, err)

		node := retrieve(t, st, "Satoshi")
		job := state.MiningJob{
			Peer:         "Satoshi",
			Index:        1,
			PreviousHash: node.Chain[1].PreviousHash,
			Data:         node.Chain[1].Data,
			ReMine:       true,
		}
		block, err := st.Mine(ctx, job)
		ifErrFailNow(t, err)

		_, err = st.MutateData("Satoshi", 1, "second edit")
		ifErrFailNow(t, err)

		shouldFailWith(t, st.ProcessReMinedBlock(job, block), state.ErrStaleBlock)
	}
}

func Test_Transactions(t *testing.T) {
	t.Log("Given the need to manage the pending pool.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})

		_, err := st.MinePending("Satoshi")
		shouldFailWith(t, err, state.ErrNoTransactions)

		tx := mempool.Tx{From: "Satoshi", To: "Hal", Amount: 50}
		other := mempool.Tx{From: "Hal", To: "Nick", Amount: 5}
		should(t, st.AddTransaction(tx) == 1, "Should add the transaction.")
		should(t, st.AddTransaction(tx) == 2, "Should keep a duplicate.")
		should(t, st.AddTransaction(other) == 3, "Should add another transaction.")

		_, err = st.MinePending("Satoshi")
		shouldFailWith(t, err, state.ErrNoWorker)

		should(t, st.RemoveTransaction(tx) == 1, "Should remove every equal transaction.")
		should(t, reflect.DeepEqual(st.RetrievePending(), []mempool.Tx{other}), "Should keep the other transaction.")
	}
}

func Test_MinedTransactionsLeavePool(t *testing.T) {
	t.Log("Given the need to remove only the mined copies of a transaction.")
	{
		st := newState(t, state.Config{
			InitialPeers: []string{"Satoshi"},
		})
		ctx := context.Background()

		w := &recorder{}
		st.Worker = w

		tx := mempool.Tx{From: "Satoshi", To: "Hal", Amount: 50}
		st.AddTransaction(tx)

		job, err := st.MinePending("Satoshi")
		ifErrFailNow(t, err)
		should(t, reflect.DeepEqual(job.Trans, []mempool.Tx{tx}), "Should carry the pending transaction in the job.")

		// The same transaction arrives again while the search runs.
		st.AddTransaction(tx)

		block, err := st.Mine(ctx, job)
		ifErrFailNow(t, err)
		ifErrFailNow(t, st.ProcessMinedBlock(job, block))

		should(t, reflect.DeepEqual(st.RetrievePending(), []mempool.Tx{tx}), "Should keep the copy that wasn't mined: %v", st.RetrievePending())
	}
}

func Test_Storage(t *testing.T) {
	t.Log("Given the need to restore the network from storage.")
	{
		mem := memory.New()

		st, err := state.New(state.Config{
			InitialPeers: []string{"Satoshi", "Hal"},
			Connections:  [][2]string{{"Satoshi", "Hal"}},
			Storage:      mem,
		})
		ifErrFailNow(t, err)

		_, err = st.MineNewBlock(context.Background(), "Satoshi", "saved block")
		ifErrFailNow(t, err)
		st.AddTransaction(mempool.Tx{From: "Satoshi", To: "Hal", Amount: 1})

		should(t, mem.Saves() > 0, "Should save the network.")
		nodes := st.RetrieveNodes()

		restored, err := state.New(state.Config{
			InitialPeers: []string{"Nick"},
			Storage:      mem,
		})
		ifErrFailNow(t, err)

		should(t, reflect.DeepEqual(nodes, restored.RetrieveNodes()), "Should restore every peer.")
		should(t, len(restored.RetrievePending()) == 1, "Should restore the pending pool.")

		_, err = restored.RetrieveNode("Nick")
		shouldFailWith(t, err, state.ErrPeerNotFound)
	}
}
