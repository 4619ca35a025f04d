// internal/transport/factory.go
package transport

import (
	"strings"

	"go.uber.org/zap"
)

// Opener opens a channel for a validated configuration. The session
// manager depends on this capability only, never on a concrete transport.
type Opener func(cfg Config, logger *zap.Logger) (Channel, error)

// Open dispatches on the address scheme: "loop://" yields the in-memory
// loopback, "tcp://" a network-forwarded port, anything else a serial
// device path. The configuration is validated before any I/O is attempted.
func Open(cfg Config, logger *zap.Logger) (Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(cfg.Address, LoopbackScheme):
		return openLoopback(cfg, logger)
	case strings.HasPrefix(cfg.Address, TCPScheme):
		return openTCP(cfg, logger)
	default:
		return openSerial(cfg, logger)
	}
}
