package boundary

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/fressian-bridge/errors"
)

func TestPinTable(t *testing.T) {
	pins := newPinTable()
	buf := []byte{1, 2, 3}
	pins.pin(64, buf)
	pins.pin(128, []byte{4})

	if pins.len() != 2 {
		t.Fatalf("len() = %d, want 2", pins.len())
	}

	got, err := pins.unpin(64)
	if err != nil {
		t.Fatal(err)
	}
	if &got[0] != &buf[0] {
		t.Error("unpin returned a different buffer")
	}

	_, err = pins.unpin(64)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBoundary, Kind: errors.KindInvalidInput}) {
		t.Errorf("second unpin = %v, want invalid_input", err)
	}
	if pins.len() != 1 {
		t.Errorf("len() = %d, want 1", pins.len())
	}
}
