package chainspecs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"embed"
)

//go:embed *.json
var configFS embed.FS

var networkFile = map[string]string{
	"dev":  "dev-genesis.json",  // authorization disabled
	"auth": "auth-genesis.json", // deploy whitelist and contract approval enabled
}

// Genesis is the initial state of a chain: one payload per genesis service.
type Genesis struct {
	ID        string                     `json:"id"`
	Timestamp uint64                     `json:"timestamp"`
	Services  map[string]json.RawMessage `json:"services"`
}

// ReadGenesis loads an embedded genesis by id, or a genesis file by path.
func ReadGenesis(id string) (genesis *Genesis, err error) {
	var data []byte
	path, ok := networkFile[id]
	if ok {
		data, err = configFS.ReadFile(path)
		if err != nil {
			return genesis, err
		}
	} else {
		data, err = os.ReadFile(id)
		if err != nil {
			return genesis, err
		}
	}
	if err := json.Unmarshal(data, &genesis); err != nil {
		return genesis, fmt.Errorf("genesis %s: %w", id, err)
	}
	if len(genesis.Services) == 0 {
		return genesis, fmt.Errorf("genesis %s: no services", id)
	}
	return genesis, nil
}

// Networks lists the embedded genesis ids.
func Networks() []string {
	ids := make([]string, 0, len(networkFile))
	for id := range networkFile {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Raw returns the embedded genesis file of id as stored.
func Raw(id string) ([]byte, error) {
	path, ok := networkFile[id]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", id)
	}
	return configFS.ReadFile(path)
}
