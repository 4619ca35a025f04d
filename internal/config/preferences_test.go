package config

import (
	"path/filepath"
	"testing"

	"serial-terminal/internal/transport"
)

func TestPreferences_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	prefs, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg := transport.DefaultConfig("/dev/ttyUSB3")
	cfg.BaudRate = 9600
	cfg.Parity = transport.ParityEven
	cfg.StopBits = 2
	cfg.RTSCTS = true

	prefs.RememberSession(cfg)
	prefs.RememberDisplay("hex", true)
	prefs.RememberSend("crlf", "latin-1")

	if err := prefs.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	session := reloaded.LastSession()
	if session.Address != "/dev/ttyUSB3" || session.BaudRate != 9600 {
		t.Errorf("unexpected session: %+v", session)
	}
	if session.Parity != transport.ParityEven || session.StopBits != 2 || !session.RTSCTS {
		t.Errorf("framing not preserved: %+v", session)
	}

	mode, timestamps := reloaded.LastDisplay()
	if mode != "hex" || !timestamps {
		t.Errorf("unexpected display prefs: %q, %v", mode, timestamps)
	}

	term, enc := reloaded.LastSend()
	if term != "crlf" || enc != "latin-1" {
		t.Errorf("unexpected send prefs: %q, %q", term, enc)
	}
}

func TestPreferences_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never-written.yaml")

	prefs, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	session := prefs.LastSession()
	if session.Address != "" {
		t.Errorf("expected empty address, got %q", session.Address)
	}
	if session.BaudRate != 115200 || session.DataBits != 8 {
		t.Errorf("unexpected defaults: %+v", session)
	}

	mode, timestamps := prefs.LastDisplay()
	if mode != "ascii" || timestamps {
		t.Errorf("unexpected display defaults: %q, %v", mode, timestamps)
	}
}
