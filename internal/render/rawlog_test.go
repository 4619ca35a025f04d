package render

import (
	"bytes"
	"testing"
)

func TestRawLog_AppendAndCounters(t *testing.T) {
	log := NewRawLog()
	log.AppendRX([]byte("Hi"))
	log.AppendRX([]byte{0x00, 0xFF})
	log.CountTX(3)

	if got := log.Bytes(); !bytes.Equal(got, []byte{'H', 'i', 0x00, 0xFF}) {
		t.Errorf("unexpected raw log contents: %v", got)
	}

	rx, tx := log.Counters()
	if rx != 4 || tx != 3 {
		t.Errorf("expected counters (4, 3), got (%d, %d)", rx, tx)
	}
}

func TestRawLog_BytesReturnsCopy(t *testing.T) {
	log := NewRawLog()
	log.AppendRX([]byte("AB"))

	snapshot := log.Bytes()
	snapshot[0] = 'X'

	if got := log.Bytes(); got[0] != 'A' {
		t.Error("mutating the snapshot changed the log")
	}
}

func TestRawLog_Clear(t *testing.T) {
	log := NewRawLog()
	log.AppendRX([]byte("data"))
	log.CountTX(2)
	log.Clear()

	if len(log.Bytes()) != 0 {
		t.Error("expected empty log after clear")
	}
	rx, tx := log.Counters()
	if rx != 0 || tx != 0 {
		t.Errorf("expected zero counters after clear, got (%d, %d)", rx, tx)
	}
}
