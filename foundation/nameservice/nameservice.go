// Package nameservice hands out unique names for new peers in the network.
package nameservice

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// DefaultNames is the list of names used when none are provided.
var DefaultNames = []string{
	"Satoshi", "Nick", "Hal", "Vitalik", "Gavin", "Adam", "Wei", "Ralph",
	"Leslie", "Whitfield", "Martin", "Ada", "Grace", "Alan", "Barbara",
	"Radia", "Ken", "Dennis", "Rob", "Robert",
}

// NameService maintains an ordered list of names to hand out.
type NameService struct {
	names []string
}

// New constructs a name service for the specified names. Blank and
// duplicate names are skipped.
func New(names ...string) *NameService {
	if len(names) == 0 {
		names = DefaultNames
	}

	ns := NameService{
		names: make([]string, 0, len(names)),
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(ns.names, name) {
			continue
		}
		ns.names = append(ns.names, name)
	}

	return &ns
}

// Generate returns the first name not in the existing list. Once every
// name is in use a unique name is derived from a uuid.
func (ns *NameService) Generate(existing []string) string {
	for _, name := range ns.names {
		if !slices.Contains(existing, name) {
			return name
		}
	}

	for {
		name := fmt.Sprintf("peer-%s", uuid.NewString()[:8])
		if !slices.Contains(existing, name) {
			return name
		}
	}
}

// Copy returns a copy of the names the service hands out.
func (ns *NameService) Copy() []string {
	return slices.Clone(ns.names)
}
