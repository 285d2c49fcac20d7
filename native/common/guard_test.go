package common

import (
	"errors"
	"testing"
)

func TestGuard(t *testing.T) {
	paused := PauseFunc(func(module string) bool { return module == "bridge" })

	if err := Guard(nil, "bridge"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	if err := Guard(paused, ""); err != nil {
		t.Fatalf("empty module must not block: %v", err)
	}
	if err := Guard(paused, "token"); err != nil {
		t.Fatalf("unpaused module blocked: %v", err)
	}
	if err := Guard(paused, "bridge"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}

func TestPauseFuncNil(t *testing.T) {
	var f PauseFunc
	if f.IsPaused("bridge") {
		t.Fatalf("nil func must report unpaused")
	}
}
