package common

import (
	"errors"
	"testing"
)

func TestGuard(t *testing.T) {
	pauses := NewPauses([]string{" Market ", "", "swap"})

	if err := Guard(pauses, "market"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(pauses, "lending"); err != nil {
		t.Fatalf("unpaused module must pass, got %v", err)
	}
	if err := Guard(nil, "market"); err != nil {
		t.Fatalf("nil view disables the check, got %v", err)
	}
	if err := Guard(pauses, ""); err != nil {
		t.Fatalf("empty module name disables the check, got %v", err)
	}

	var nilPauses *Pauses
	if nilPauses.IsPaused("market") {
		t.Fatal("nil Pauses must report nothing paused")
	}
}
