package progress

import (
	"bytes"
	"testing"
)

func TestTickEmitsUnitByte(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 0)

	r.Tick()
	r.Tick()
	r.Tick()

	if got := buf.Bytes(); len(got) != 3 || got[0] != 0x2e || got[1] != 0x2e || got[2] != 0x2e {
		t.Errorf("after 3 Tick calls, buf = %v, want three 0x2e bytes", got)
	}
}

func TestDoneEmitsEndByte(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 0)

	r.Tick()
	r.Done()

	got := buf.Bytes()
	if len(got) != 2 || got[0] != 0x2e || got[1] != 0x21 {
		t.Errorf("buf = %v, want [0x2e, 0x21]", got)
	}
}
