package chainspecs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedGenesis(t *testing.T) {
	for _, id := range Networks() {
		genesis, err := ReadGenesis(id)
		require.NoError(t, err, id)
		require.Equal(t, id, genesis.ID)
		require.Contains(t, genesis.Services, "riscv")
		require.Contains(t, genesis.Services, "asset")
	}

	var riscv struct {
		EnableAuthorization bool     `json:"enable_authorization"`
		Admins              []string `json:"admins"`
	}
	genesis, err := ReadGenesis("auth")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(genesis.Services["riscv"], &riscv))
	require.True(t, riscv.EnableAuthorization)
	require.NotEmpty(t, riscv.Admins)
}

func TestGenesisFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"local","services":{"asset":{}}}`), 0o644))
	genesis, err := ReadGenesis(path)
	require.NoError(t, err)
	require.Equal(t, "local", genesis.ID)

	require.NoError(t, os.WriteFile(path, []byte(`{"id":"empty"}`), 0o644))
	_, err = ReadGenesis(path)
	require.Error(t, err)

	_, err = ReadGenesis(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Raw("missing")
	require.Error(t, err)
}
