package nameservice_test

import (
	"strings"
	"testing"

	"github.com/ardanlabs/blockdemo/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Generate(t *testing.T) {
	t.Log("Given the need to generate unique peer names.")
	{
		ns := nameservice.New("Alice", " Bob ", "", "Alice")

		names := ns.Copy()
		if len(names) != 2 || names[0] != "Alice" || names[1] != "Bob" {
			t.Fatalf("\t%s\tShould skip blank and duplicate names: %v", failed, names)
		}
		t.Logf("\t%s\tShould skip blank and duplicate names.", success)

		var existing []string
		for i := 0; i < 10; i++ {
			name := ns.Generate(existing)
			for _, e := range existing {
				if e == name {
					t.Fatalf("\t%s\tShould never hand out a name in use: %s", failed, name)
				}
			}
			existing = append(existing, name)
		}
		t.Logf("\t%s\tShould never hand out a name in use.", success)

		if existing[0] != "Alice" || existing[1] != "Bob" {
			t.Fatalf("\t%s\tShould use the names in order: %v", failed, existing[:2])
		}
		t.Logf("\t%s\tShould use the names in order.", success)

		if !strings.HasPrefix(existing[2], "peer-") {
			t.Fatalf("\t%s\tShould fall back to generated names: %s", failed, existing[2])
		}
		t.Logf("\t%s\tShould fall back to generated names.", success)
	}
}

func Test_Defaults(t *testing.T) {
	t.Log("Given the need to use the default names.")
	{
		ns := nameservice.New()

		if got := ns.Generate(nil); got != nameservice.DefaultNames[0] {
			t.Fatalf("\t%s\tShould start with the first default name: got %s", failed, got)
		}
		t.Logf("\t%s\tShould start with the first default name.", success)
	}
}
