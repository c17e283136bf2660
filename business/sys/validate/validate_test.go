package validate_test

import (
	"testing"

	"github.com/ardanlabs/blockdemo/business/sys/validate"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Check(t *testing.T) {
	t.Log("Given the need to validate a transaction.")
	{
		good := mempool.Tx{From: "Satoshi", To: "Hal", Amount: 10}
		if err := validate.Check(good); err != nil {
			t.Fatalf("\t%s\tShould accept a valid transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid transaction.", success)

		err := validate.Check(mempool.Tx{To: "Hal"})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould reject a transaction without a sender: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a transaction without a sender.", success)

		fields := validate.GetFieldErrors(err).Fields()
		if _, exists := fields["from"]; !exists {
			t.Fatalf("\t%s\tShould name the json field that failed: %v", failed, fields)
		}
		t.Logf("\t%s\tShould name the json field that failed.", success)
	}
}
