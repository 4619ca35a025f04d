package transport

import (
	"bytes"
	"testing"
	"time"

	"go.uber.org/zap"
)

func openTestLoopback(t *testing.T) Channel {
	t.Helper()
	cfg := DefaultConfig(LoopbackScheme)
	cfg.ReadTimeout = 10 * time.Millisecond

	ch, err := Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open loopback: %v", err)
	}
	return ch
}

func TestLoopback_EchoesWrites(t *testing.T) {
	ch := openTestLoopback(t)
	defer ch.Close()

	if _, err := ch.Write([]byte("ping")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	buf := make([]byte, 16)
	n, err := ch.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("ping")) {
		t.Errorf("expected %q, got %q", "ping", buf[:n])
	}
}

func TestLoopback_ReadTimesOutEmpty(t *testing.T) {
	ch := openTestLoopback(t)
	defer ch.Close()

	buf := make([]byte, 16)
	n, err := ch.Read(buf)
	if n != 0 || err != nil {
		t.Errorf("expected (0, nil) on timeout, got (%d, %v)", n, err)
	}
}

func TestLoopback_ControlLinesLoopBack(t *testing.T) {
	ch := openTestLoopback(t)
	defer ch.Close()

	if lines := ch.LineState(); lines.CTS || lines.DSR {
		t.Errorf("expected lines low initially, got %+v", lines)
	}

	if err := ch.SetRTS(true); err != nil {
		t.Fatalf("SetRTS failed: %v", err)
	}
	if err := ch.SetDTR(true); err != nil {
		t.Fatalf("SetDTR failed: %v", err)
	}

	lines := ch.LineState()
	if !lines.CTS || !lines.DSR {
		t.Errorf("expected RTS->CTS and DTR->DSR, got %+v", lines)
	}
	if lines.RI || lines.CD {
		t.Errorf("RI and CD are never asserted on loopback, got %+v", lines)
	}
}

func TestLoopback_CloseIsIdempotent(t *testing.T) {
	ch := openTestLoopback(t)

	if err := ch.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	buf := make([]byte, 4)
	if _, err := ch.Read(buf); err != ErrClosed {
		t.Errorf("expected ErrClosed on read after close, got %v", err)
	}
	if _, err := ch.Write([]byte("x")); err != ErrClosed {
		t.Errorf("expected ErrClosed on write after close, got %v", err)
	}
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig(LoopbackScheme)
	cfg.BaudRate = 0

	if _, err := Open(cfg, zap.NewNop()); err == nil {
		t.Error("expected validation error")
	}
}
