package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_LoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")

	data := []byte(`
peers: [Satoshi, Hal]
connections:
  - from: Satoshi
    to: Hal
names: [Nick]
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	s, err := loadSeed(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Satoshi", "Hal"}, s.Peers)
	require.Equal(t, [][2]string{{"Satoshi", "Hal"}}, s.connections())
	require.Equal(t, "Nick", s.nameService().Generate(s.Peers))

	missing, err := loadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Empty(t, missing.Peers)

	require.NoError(t, os.WriteFile(path, []byte("peers: {"), 0600))
	_, err = loadSeed(path)
	require.Error(t, err)
}
