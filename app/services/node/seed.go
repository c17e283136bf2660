package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/blockdemo/foundation/nameservice"
	"gopkg.in/yaml.v3"
)

// link represents a connection between two peers in the seed file.
type link struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// seed represents the initial topology of the network.
type seed struct {
	Peers       []string `yaml:"peers"`
	Connections []link   `yaml:"connections"`
	Names       []string `yaml:"names"`
}

// loadSeed reads the seed file. A missing file produces an empty network
// using the default names.
func loadSeed(path string) (seed, error) {
	var s seed

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return seed{}, fmt.Errorf("reading seed file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return seed{}, fmt.Errorf("parsing seed file: %w", err)
	}

	return s, nil
}

// connections returns the links in the form the state expects.
func (s seed) connections() [][2]string {
	conns := make([][2]string, len(s.Connections))
	for i, l := range s.Connections {
		conns[i] = [2]string{l.From, l.To}
	}
	return conns
}

// nameService constructs the name service for the names in the seed.
func (s seed) nameService() *nameservice.NameService {
	return nameservice.New(s.Names...)
}
