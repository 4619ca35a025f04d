// internal/transport/loopback.go
package transport

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// LoopbackScheme is the address of the in-memory echo transport, used to
// exercise the full pipeline without hardware.
const LoopbackScheme = "loop://"

// loopbackChannel echoes every written byte back to the reader. The
// outbound control lines loop back to their status counterparts: RTS is
// reported as CTS and DTR as DSR, the way a wired-back null modem would.
type loopbackChannel struct {
	mutex   sync.Mutex
	buffer  []byte
	notify  chan struct{}
	timeout time.Duration
	rts     bool
	dtr     bool
	closed  bool
	logger  *zap.Logger
}

func openLoopback(cfg Config, logger *zap.Logger) (Channel, error) {
	logger.Info("Loopback channel opened", zap.String("address", cfg.Address))
	return &loopbackChannel{
		notify:  make(chan struct{}, 1),
		timeout: cfg.ReadTimeout,
		logger:  logger,
	}, nil
}

func (l *loopbackChannel) Read(p []byte) (int, error) {
	deadline := time.NewTimer(l.timeout)
	defer deadline.Stop()

	for {
		l.mutex.Lock()
		if l.closed {
			l.mutex.Unlock()
			return 0, ErrClosed
		}
		if len(l.buffer) > 0 {
			n := copy(p, l.buffer)
			l.buffer = l.buffer[n:]
			l.mutex.Unlock()
			return n, nil
		}
		l.mutex.Unlock()

		select {
		case <-l.notify:
		case <-deadline.C:
			return 0, nil
		}
	}
}

func (l *loopbackChannel) Write(p []byte) (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return 0, ErrClosed
	}

	l.buffer = append(l.buffer, p...)
	select {
	case l.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (l *loopbackChannel) Drain() error {
	return nil
}

func (l *loopbackChannel) SetRTS(level bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.rts = level
	return nil
}

func (l *loopbackChannel) SetDTR(level bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.dtr = level
	return nil
}

func (l *loopbackChannel) LineState() LineState {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return LineState{CTS: l.rts, DSR: l.dtr}
}

func (l *loopbackChannel) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	l.buffer = nil

	// Wake any blocked reader so it observes the closed state.
	select {
	case l.notify <- struct{}{}:
	default:
	}

	l.logger.Info("Loopback channel closed")
	return nil
}
