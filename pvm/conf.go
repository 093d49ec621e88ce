package pvm

import "time"

type InterpreterConf struct {
	MaxArgsSize         int           `json:"max_args_size"`
	MaxReturnSize       int           `json:"max_return_size"`
	MaxResponseSize     int           `json:"max_response_size"`
	MaxEventSize        int           `json:"max_event_size"`
	MaxStorageValueSize int           `json:"max_storage_value_size"`
	HostCallCycles      uint64        `json:"host_call_cycles"`
	ContractCallCycles  uint64        `json:"contract_call_cycles"`
	ScriptTimeout       time.Duration `json:"script_timeout"`
}

const (
	g = 10

	ContractCallFixedCycles = 1000
)

func DefaultInterpreterConf() InterpreterConf {
	return InterpreterConf{
		MaxArgsSize:         1024,
		MaxReturnSize:       1024,
		MaxResponseSize:     1024,
		MaxEventSize:        1024,
		MaxStorageValueSize: 1024,
		HostCallCycles:      g,
		ContractCallCycles:  ContractCallFixedCycles,
		ScriptTimeout:       2 * time.Second,
	}
}
