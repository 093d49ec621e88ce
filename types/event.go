package types

import "fmt"

// Event is an append-only record attached to the executing transaction.
type Event struct {
	Service string `json:"service"`
	Name    string `json:"name"`
	Data    string `json:"data"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s.%s(%s)", e.Service, e.Name, e.Data)
}

// ServiceResponse is the outcome of a top-level service call.
type ServiceResponse struct {
	Code         uint64 `json:"code"`
	SucceedData  string `json:"succeed_data"`
	ErrorMessage string `json:"error_message"`
}

func (r ServiceResponse) IsError() bool {
	return r.Code != 0
}
