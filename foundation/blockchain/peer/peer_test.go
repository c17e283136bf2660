package peer_test

import (
	"fmt"
	"testing"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []string
	}

	tt := []table{
		{
			name:  "basic",
			peers: []string{"Satoshi", "Vitalik", "Hal"},
		},
		{
			name:  "duplicates",
			peers: []string{"Satoshi", "Satoshi", "Hal", "Hal"},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			var reg peer.Registry
			for _, name := range tst.peers {
				reg = reg.Add(name)
			}

			seen := make(map[string]bool)
			for _, n := range reg.Nodes() {
				if seen[n.ID] {
					t.Fatalf("Test %s:\tShould not have two nodes named %s.", tst.name, n.ID)
				}
				seen[n.ID] = true

				if len(n.Chain) != 1 || n.Chain[0] != genesis.Block() {
					t.Fatalf("Test %s:\tShould start %s with only genesis.", tst.name, n.ID)
				}
			}

			if reg.Len() != len(seen) {
				t.Logf("Test %s:\tgot: %d", tst.name, reg.Len())
				t.Logf("Test %s:\texp: %d", tst.name, len(seen))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			reg = reg.Remove("Hal")
			if _, exists := reg.Node("Hal"); exists {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_AddManyUnique(t *testing.T) {
	var reg peer.Registry
	for i := 0; i < 50; i++ {
		reg = reg.Add(fmt.Sprintf("peer-%d", i%10))
	}

	if reg.Len() != 10 {
		t.Fatalf("Should have 10 unique peers, got %d.", reg.Len())
	}
}

func Test_Connections(t *testing.T) {
	reg := peer.NewRegistry().Add("A").Add("B").Add("C")

	reg = reg.Connect("A", "B").Connect("A", "C").Connect("B", "A")

	a, _ := reg.Node("A")
	if !a.IsConnected("B") || !a.IsConnected("C") {
		t.Fatalf("Should have A connected to B and C.")
	}

	c, _ := reg.Node("C")
	if c.IsConnected("A") {
		t.Fatalf("Should have one directional connections.")
	}

	before := reg
	reg = reg.SendMessage("A", "B", peer.Message{Kind: peer.KindText, From: "A", To: "B", Text: "hi"})

	a, _ = reg.Node("A")
	if len(a.Connected[0].Inbox) != 1 || a.Connected[0].Inbox[0].Text != "hi" {
		t.Fatalf("Should record the message on A's connection to B.")
	}
	if len(a.Connected[1].Inbox) != 0 {
		t.Fatalf("Should not record the message on A's connection to C.")
	}

	old, _ := before.Node("A")
	if len(old.Connected[0].Inbox) != 0 {
		t.Fatalf("Should not change the previous registry.")
	}

	reg = reg.Disconnect("A", "B")
	a, _ = reg.Node("A")
	if a.IsConnected("B") {
		t.Fatalf("Should be able to disconnect A from B.")
	}

	reg = reg.Remove("A")
	b, _ := reg.Node("B")
	if b.IsConnected("A") {
		t.Fatalf("Should prune A from B's connections.")
	}
}

func Test_ChainTransitions(t *testing.T) {
	reg := peer.NewRegistry().Add("A")

	block := database.Block{Index: 1, PreviousHash: genesis.Hash, TimeStamp: 1, Data: "x", Nonce: 1}
	block.Hash = block.ComputeHash()

	next := reg.AddBlock("A", block)

	a, _ := reg.Node("A")
	if len(a.Chain) != 1 {
		t.Fatalf("Should not change the previous registry, got %d blocks.", len(a.Chain))
	}

	a, _ = next.Node("A")
	if len(a.Chain) != 2 || a.Chain[1] != block {
		t.Fatalf("Should append the block without validation.")
	}

	mutated := next.MutateData("A", 1, "y")
	a, _ = mutated.Node("A")
	if a.Chain[1].Data != "y" || a.Chain[1].Hash != a.Chain[1].ComputeHash() {
		t.Fatalf("Should mutate and rehash the block.")
	}

	a, _ = next.Node("A")
	if a.Chain[1].Data != "x" {
		t.Fatalf("Should not change the chain of the previous registry.")
	}

	replaced := mutated.ReplaceChain("A", genesis.Chain())
	a, _ = replaced.Node("A")
	if len(a.Chain) != 1 {
		t.Fatalf("Should replace the chain.")
	}

	remined := mutated.ReMine("A", 1, 42, "000abc", 99)
	a, _ = remined.Node("A")
	if a.Chain[1].Nonce != 42 || a.Chain[1].Hash != "000abc" || a.Chain[1].TimeStamp != 99 {
		t.Fatalf("Should apply the re-mined fields.")
	}

	same := reg.AddBlock("missing", block)
	if same.Len() != 1 {
		t.Fatalf("Should ignore unknown peers.")
	}
}

func Test_ReadersCantWrite(t *testing.T) {
	block := database.Block{Index: 1, PreviousHash: genesis.Hash, Data: "x"}
	block.Hash = block.ComputeHash()

	reg := peer.Registry{}.Add("A").Add("B").Connect("A", "B")
	reg = reg.AddBlock("A", block)
	reg = reg.SendMessage("A", "B", peer.Message{Kind: peer.KindText, Text: "gm"})

	a, _ := reg.Node("A")
	a.Chain[1].Data = "changed by reader"
	a.Connected[0].Name = "C"
	a.Connected[0].Inbox[0].Text = "changed by reader"

	nodes := reg.Nodes()
	nodes[0].Chain[0].Hash = "changed by reader"

	a, _ = reg.Node("A")
	if a.Chain[1].Data != "x" {
		t.Logf("got: %s", a.Chain[1].Data)
		t.Fatalf("Should not change the chain through a node returned by Node.")
	}
	if a.Connected[0].Name != "B" || a.Connected[0].Inbox[0].Text != "gm" {
		t.Fatalf("Should not change the connections through a node returned by Node.")
	}
	if a.Chain[0] != genesis.Block() {
		t.Fatalf("Should not change the chain through a node returned by Nodes.")
	}
}
