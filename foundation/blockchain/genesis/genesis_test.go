package genesis_test

import (
	"testing"

	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Verify(t *testing.T) {
	t.Log("Given the need to validate the genesis block.")
	{
		t.Logf("\tTest 0:\tWhen recomputing the genesis hash.")
		{
			if err := genesis.Verify(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the genesis block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to verify the genesis block.", success)

			if l := len(genesis.Hash); l != 64 {
				t.Fatalf("\t%s\tTest 0:\tShould have a 64 character hash: got %d", failed, l)
			}
			t.Logf("\t%s\tTest 0:\tShould have a 64 character hash.", success)

			gen := genesis.Block()
			if got := database.CalculateHash(gen.Index, gen.PreviousHash, gen.TimeStamp, gen.Data, gen.Nonce); got != genesis.Hash {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, got)
				t.Logf("\t%s\tTest 0:\texp: %s", failed, genesis.Hash)
				t.Fatalf("\t%s\tTest 0:\tShould reproduce the pinned hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reproduce the pinned hash.", success)
		}

		t.Logf("\tTest 1:\tWhen handing out genesis chains.")
		{
			c1 := genesis.Chain()
			c2 := genesis.Chain()
			c1[0].Data = "changed"

			if c2[0] != genesis.Block() {
				t.Fatalf("\t%s\tTest 1:\tShould not share memory between chains.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould not share memory between chains.", success)
		}
	}
}
