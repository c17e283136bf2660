package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ardanlabs/blockdemo/business/web/errs"
)

func Test_Trusted(t *testing.T) {
	base := errors.New("peer not found")
	err := fmt.Errorf("handler: %w", errs.NewTrusted(base, http.StatusNotFound))

	if !errs.IsTrusted(err) {
		t.Fatal("Should find the trusted error in the chain.")
	}

	trs := errs.GetTrusted(err)
	if trs.Status != http.StatusNotFound || trs.Error() != base.Error() {
		t.Fatalf("Should keep the status and message: %d %q", trs.Status, trs.Error())
	}

	if errs.GetTrusted(base) != nil {
		t.Fatal("Should not find a trusted error in a plain error.")
	}
}
