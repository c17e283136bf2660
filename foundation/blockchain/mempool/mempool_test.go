package mempool_test

import (
	"testing"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name   string
		txs    []mempool.Tx
		remove mempool.Tx
		left   int
	}

	tt := []table{
		{
			name: "basic",
			txs: []mempool.Tx{
				{From: "Satoshi", To: "Hal", Amount: 10},
				{From: "Hal", To: "Vitalik", Amount: 50},
				{From: "Vitalik", To: "Satoshi", Amount: 100},
			},
			remove: mempool.Tx{From: "Hal", To: "Vitalik", Amount: 50},
			left:   2,
		},
		{
			name: "duplicates",
			txs: []mempool.Tx{
				{From: "Satoshi", To: "Hal", Amount: 10},
				{From: "Satoshi", To: "Hal", Amount: 10},
				{From: "Satoshi", To: "Hal", Amount: 10, Memo: "coffee"},
			},
			remove: mempool.Tx{From: "Satoshi", To: "Hal", Amount: 10},
			left:   1,
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					var mp mempool.Pool

					for _, tx := range tst.txs {
						mp = mp.Add(tx)
						t.Logf("\t%s\tTest %d:\tShould be able to add new transaction: %s", success, testID, tx)
					}

					if mp.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould keep every transaction including duplicates.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould keep every transaction including duplicates.", success, testID)

					for i, tx := range mp.Copy() {
						if tx != tst.txs[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i])
							t.Fatalf("\t%s\tTest %d:\tShould get back the transactions in order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get back the transactions in order.", success, testID)

					before := mp
					mp = mp.Remove(tst.remove)
					if mp.Count() != tst.left {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, mp.Count())
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.left)
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove a transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove a transaction.", success, testID)

					if mp.Contains(tst.remove) {
						t.Fatalf("\t%s\tTest %d:\tShould remove every equal transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould remove every equal transaction.", success, testID)

					if before.Count() != len(tst.txs) {
						t.Fatalf("\t%s\tTest %d:\tShould not change the previous pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not change the previous pool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestEncoding(t *testing.T) {
	txs := []mempool.Tx{
		{From: "Satoshi", To: "Hal", Amount: 10, Memo: "first"},
		{From: "Hal", To: "Satoshi", Amount: 5},
	}

	data, err := mempool.Encode(txs)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to encode transactions: %v", failed, err)
	}

	got, err := mempool.Decode(data)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to decode transactions: %v", failed, err)
	}

	if len(got) != len(txs) || got[0] != txs[0] || got[1] != txs[1] {
		t.Fatalf("\t%s\tShould get back the same transactions.", failed)
	}
	t.Logf("\t%s\tShould get back the same transactions.", success)

	if _, err := mempool.Decode("Welcome to Blockchain Demo 2.0!"); err == nil {
		t.Fatalf("\t%s\tShould fail to decode free form data.", failed)
	}
	t.Logf("\t%s\tShould fail to decode free form data.", success)
}

func TestConsume(t *testing.T) {
	tx := mempool.Tx{From: "Satoshi", To: "Hal", Amount: 10}
	other := mempool.Tx{From: "Hal", To: "Nick", Amount: 5}

	t.Log("Given the need to remove mined transactions from the pool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen an equal transaction was added during mining.", testID)
		{
			mp := mempool.New(tx, other, tx)

			after := mp.Consume([]mempool.Tx{tx})
			if after.Count() != 2 {
				t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, after.Count())
				t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, 2)
				t.Fatalf("\t%s\tTest %d:\tShould remove one occurrence per mined transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remove one occurrence per mined transaction.", success, testID)

			if !after.Contains(tx) || !after.Contains(other) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the unmined duplicate.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the unmined duplicate.", success, testID)

			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould not change the original pool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not change the original pool.", success, testID)

			if n := mp.Consume([]mempool.Tx{tx, tx, tx}).Count(); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould ignore mined transactions no longer pending: %d left.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould ignore mined transactions no longer pending.", success, testID)
		}
	}
}
