package dufsd

import "testing"

func TestShutdownFlag(t *testing.T) {
	f := NewShutdownFlag()
	if !f.Alive() {
		t.Error("a fresh ShutdownFlag must be alive")
	}
	f.Stop()
	if f.Alive() {
		t.Error("Stop must make the flag report not alive")
	}
}
