package service

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/session"
	"serial-terminal/internal/transport"
)

// fakeChannel feeds queued data to the session loop and records writes.
type fakeChannel struct {
	mutex    sync.Mutex
	incoming chan []byte
	written  []byte
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{incoming: make(chan []byte, 16)}
}

func (f *fakeChannel) Read(p []byte) (int, error) {
	select {
	case data := <-f.incoming:
		return copy(p, data), nil
	case <-time.After(time.Millisecond):
		return 0, nil
	}
}

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakeChannel) Drain() error            { return nil }
func (f *fakeChannel) SetRTS(level bool) error { return nil }
func (f *fakeChannel) SetDTR(level bool) error { return nil }
func (f *fakeChannel) LineState() transport.LineState {
	return transport.LineState{}
}
func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) sent() []byte {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]byte, len(f.written))
	copy(out, f.written)
	return out
}

func newTestTerminal(t *testing.T) (*TerminalService, *fakeChannel) {
	t.Helper()

	ch := newFakeChannel()
	opener := func(cfg transport.Config, _ *zap.Logger) (transport.Channel, error) {
		return ch, nil
	}

	manager := session.NewManagerWithOpener(opener, zap.NewNop())
	bus := NewEventBus(zap.NewNop())
	go bus.Start()

	svc := NewTerminalService(manager, bus, zap.NewNop())
	svc.Start()

	t.Cleanup(func() {
		svc.Stop()
		bus.Close()
	})

	cfg := transport.DefaultConfig("/dev/ttyTEST")
	cfg.ReadTimeout = time.Millisecond
	if err := svc.Open(cfg); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	waitUntil(t, func() bool { return svc.Status().Open })

	return svc, ch
}

// waitUntil polls cond until it holds or the deadline expires.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTerminal_ReceivedBytesAreRendered(t *testing.T) {
	svc, ch := newTestTerminal(t)

	ch.incoming <- []byte("Hi")
	waitUntil(t, func() bool { return svc.Status().RXBytes == 2 })

	if got := svc.DisplayText(); got != "Hi" {
		t.Errorf("expected display %q, got %q", "Hi", got)
	}
	if got := svc.RawLogBytes(); !bytes.Equal(got, []byte("Hi")) {
		t.Errorf("expected raw log %q, got %q", "Hi", got)
	}
}

func TestTerminal_PauseSuspendsRenderingOnly(t *testing.T) {
	svc, ch := newTestTerminal(t)

	ch.incoming <- []byte("Hi")
	waitUntil(t, func() bool { return svc.Status().RXBytes == 2 })

	svc.SetPaused(true)
	ch.incoming <- []byte("XX")
	waitUntil(t, func() bool { return svc.Status().RXBytes == 4 })

	// Paused bytes are logged and counted but never rendered.
	if got := svc.DisplayText(); got != "Hi" {
		t.Errorf("expected display unchanged while paused, got %q", got)
	}
	if got := svc.RawLogBytes(); !bytes.Equal(got, []byte("HiXX")) {
		t.Errorf("expected raw log %q, got %q", "HiXX", got)
	}

	svc.SetPaused(false)
	ch.incoming <- []byte("!")
	waitUntil(t, func() bool { return svc.Status().RXBytes == 5 })

	if got := svc.DisplayText(); got != "Hi!" {
		t.Errorf("expected display %q after resume, got %q", "Hi!", got)
	}
}

func TestTerminal_ClearResetsDisplayLogAndCounters(t *testing.T) {
	svc, ch := newTestTerminal(t)

	ch.incoming <- []byte("data")
	waitUntil(t, func() bool { return svc.Status().RXBytes == 4 })

	svc.Clear()

	snapshot := svc.Status()
	if snapshot.RXBytes != 0 || snapshot.TXBytes != 0 {
		t.Errorf("expected zero counters, got rx=%d tx=%d", snapshot.RXBytes, snapshot.TXBytes)
	}
	if svc.DisplayText() != "" {
		t.Errorf("expected empty display, got %q", svc.DisplayText())
	}
	if len(svc.RawLogBytes()) != 0 {
		t.Error("expected empty raw log")
	}
}

func TestTerminal_SendTextEncodesAndCounts(t *testing.T) {
	svc, ch := newTestTerminal(t)

	sent, err := svc.SendText("A", "crlf", "utf-8")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sent != 3 {
		t.Errorf("expected 3 bytes sent, got %d", sent)
	}

	if got := ch.sent(); !bytes.Equal(got, []byte("A\r\n")) {
		t.Errorf("expected %q on the wire, got %q", "A\r\n", got)
	}
	if svc.Status().TXBytes != 3 {
		t.Errorf("expected TX counter 3, got %d", svc.Status().TXBytes)
	}
}

func TestTerminal_SendHexRejectsBadInput(t *testing.T) {
	svc, ch := newTestTerminal(t)

	if _, err := svc.SendHex("12A", "none"); err == nil {
		t.Fatal("expected error for odd-length token")
	}
	if len(ch.sent()) != 0 {
		t.Error("nothing should reach the wire on a parse error")
	}
}

func TestTerminal_ViewModeSwitch(t *testing.T) {
	svc, ch := newTestTerminal(t)

	if err := svc.SetViewMode("hex"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.Status().ViewMode; got != "hex" {
		t.Errorf("expected view mode hex, got %q", got)
	}

	ch.incoming <- []byte("Hi")
	waitUntil(t, func() bool { return svc.Status().RXBytes == 2 })

	if got := svc.DisplayText(); got != "48 69" {
		t.Errorf("expected hex display %q, got %q", "48 69", got)
	}

	if err := svc.SetViewMode("binary"); err == nil {
		t.Error("expected error for unknown view mode")
	}
}

func TestTerminal_RepeatSend(t *testing.T) {
	svc, ch := newTestTerminal(t)

	if err := svc.StartRepeat([]byte("R"), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.StartRepeat([]byte("X"), 20*time.Millisecond); err != ErrRepeatActive {
		t.Errorf("expected ErrRepeatActive, got %v", err)
	}

	waitUntil(t, func() bool { return len(ch.sent()) >= 3 })
	svc.StopRepeat()

	sent := ch.sent()
	for _, b := range sent {
		if b != 'R' {
			t.Errorf("unexpected byte on the wire: %q", sent)
			break
		}
	}

	// Stopping twice is safe.
	svc.StopRepeat()
}

func TestTerminal_CloseReportsStatus(t *testing.T) {
	svc, _ := newTestTerminal(t)

	svc.Close()
	waitUntil(t, func() bool { return !svc.Status().Open })
}
