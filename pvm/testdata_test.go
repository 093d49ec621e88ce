package pvm

import (
	"os"
	"testing"
)

func readProbe(t *testing.T) []byte {
	t.Helper()
	code, err := os.ReadFile("testdata/probe.js")
	if err != nil {
		t.Fatalf("read probe: %v", err)
	}
	return code
}
