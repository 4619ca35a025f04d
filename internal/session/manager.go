// internal/session/manager.go
package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/transport"
)

const (
	// idleInterval is how long the loop sleeps when no channel is open
	// and after a transient read error.
	idleInterval = 50 * time.Millisecond

	// linePollInterval bounds how often the modem lines are polled.
	linePollInterval = 50 * time.Millisecond

	// stopTimeout bounds how long Stop waits for the loop to wind down.
	stopTimeout = time.Second

	readBufferSize = 4096

	notificationBuffer = 1024
)

// Manager owns at most one open transport channel and serializes
// open/close/reconfigure/write/control requests from the foreground
// against its background polling loop. Everything the loop observes is
// reported as ordered notifications; no transport failure ever
// terminates the loop.
type Manager struct {
	mutex   sync.Mutex
	channel transport.Channel
	pending *transport.Config
	current *transport.Config

	opener        transport.Opener
	logger        *zap.Logger
	notifications chan Notification

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager using the default transport factory.
func NewManager(logger *zap.Logger) *Manager {
	return NewManagerWithOpener(transport.Open, logger)
}

// NewManagerWithOpener creates a manager with a custom channel opener.
func NewManagerWithOpener(opener transport.Opener, logger *zap.Logger) *Manager {
	return &Manager{
		opener:        opener,
		logger:        logger,
		notifications: make(chan Notification, notificationBuffer),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Notifications is the ordered event stream toward the foreground.
func (m *Manager) Notifications() <-chan Notification {
	return m.notifications
}

// Done is closed once the background loop has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// ConfigureAndOpen validates cfg and records it as the pending
// configuration. It returns immediately; the background loop performs
// the actual open on its next iteration. A newer pending configuration
// replaces an unprocessed older one, so back-to-back requests result in
// a single open attempt with the most recent settings.
func (m *Manager) ConfigureAndOpen(cfg transport.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mutex.Lock()
	m.pending = &cfg
	m.mutex.Unlock()
	return nil
}

// Write writes and flushes the payload on the open channel. With no
// channel open the payload is silently dropped. A failed write is
// reported as an error notification and leaves the channel open.
func (m *Manager) Write(payload []byte) {
	m.mutex.Lock()
	ch := m.channel
	m.mutex.Unlock()

	if ch == nil {
		m.logger.Debug("Write dropped, no open channel", zap.Int("bytes", len(payload)))
		return
	}

	if _, err := ch.Write(payload); err != nil {
		m.publish(errorNotification(fmt.Sprintf("Write failed: %v", err)))
		return
	}
	if err := ch.Drain(); err != nil {
		m.publish(errorNotification(fmt.Sprintf("Flush failed: %v", err)))
	}
}

// SetRTS sets the RTS line on the open channel, if any.
func (m *Manager) SetRTS(level bool) {
	m.setLine("RTS", level, transport.Channel.SetRTS)
}

// SetDTR sets the DTR line on the open channel, if any.
func (m *Manager) SetDTR(level bool) {
	m.setLine("DTR", level, transport.Channel.SetDTR)
}

func (m *Manager) setLine(name string, level bool, set func(transport.Channel, bool) error) {
	m.mutex.Lock()
	ch := m.channel
	m.mutex.Unlock()

	if ch == nil {
		return
	}
	if err := set(ch, level); err != nil {
		m.publish(errorNotification(fmt.Sprintf("%s set failed: %v", name, err)))
	}
}

// ClosePort closes the open channel, if any. Idempotent: a second call
// is a no-op and emits no duplicate closed notification.
func (m *Manager) ClosePort() {
	m.mutex.Lock()
	ch := m.channel
	cfg := m.current
	m.channel = nil
	m.current = nil
	m.mutex.Unlock()

	if ch == nil {
		return
	}
	if err := ch.Close(); err != nil {
		m.logger.Warn("Channel close failed", zap.Error(err))
	}
	m.publish(statusNotification(false, cfg))
}

// IsOpen reports whether a channel is currently open.
func (m *Manager) IsOpen() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.channel != nil
}

// CurrentConfig returns the configuration of the open channel, or nil.
func (m *Manager) CurrentConfig() *transport.Config {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current
}

// Run is the background polling loop. Each iteration applies any pending
// configuration, performs one bounded read, and polls the modem lines at
// most every 50ms. Only Stop terminates the loop; the channel is
// guaranteed closed before it exits.
func (m *Manager) Run() {
	defer close(m.done)
	defer m.ClosePort()

	buf := make([]byte, readBufferSize)
	var lastLinePoll time.Time

	for {
		select {
		case <-m.stop:
			return
		default:
		}

		m.mutex.Lock()
		pending := m.pending
		m.pending = nil
		m.mutex.Unlock()

		if pending != nil {
			m.reopen(*pending)
		}

		m.mutex.Lock()
		ch := m.channel
		m.mutex.Unlock()

		if ch == nil {
			if !m.idle() {
				return
			}
			continue
		}

		n, err := ch.Read(buf)
		if err != nil {
			m.publish(errorNotification(fmt.Sprintf("I/O error: %v", err)))
			if !m.idle() {
				return
			}
			continue
		}
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			m.publish(dataNotification(data))
		}

		if time.Since(lastLinePoll) >= linePollInterval {
			m.publish(lineStateNotification(ch.LineState()))
			lastLinePoll = time.Now()
		}
	}
}

// Stop requests loop shutdown and waits (bounded) for the current
// iteration to finish and the channel to close.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	select {
	case <-m.done:
	case <-time.After(stopTimeout):
		m.logger.Warn("Timed out waiting for session loop to stop")
	}
}

// idle sleeps briefly, returning false if stop was requested.
func (m *Manager) idle() bool {
	select {
	case <-m.stop:
		return false
	case <-time.After(idleInterval):
		return true
	}
}

// reopen closes the current channel (ignoring close errors) and attempts
// to open cfg. Open failures are recoverable: they leave the channel
// absent and are reported as a closed status plus an error notification.
func (m *Manager) reopen(cfg transport.Config) {
	m.mutex.Lock()
	old := m.channel
	m.channel = nil
	m.current = nil
	m.mutex.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			m.logger.Warn("Close before reopen failed", zap.Error(err))
		}
	}

	ch, err := m.opener(cfg, m.logger)
	if err != nil {
		m.publish(statusNotification(false, &cfg))
		m.publish(errorNotification(fmt.Sprintf("Open failed: %v", err)))
		return
	}

	m.mutex.Lock()
	stopped := false
	select {
	case <-m.stop:
		stopped = true
	default:
		m.channel = ch
		m.current = &cfg
	}
	m.mutex.Unlock()

	if stopped {
		ch.Close()
		return
	}

	m.publish(statusNotification(true, &cfg))
	m.logger.Info("Session opened", zap.String("channel", cfg.Describe()))
}

// publish emits a notification without ever blocking the loop. When the
// foreground falls too far behind, the event is dropped with a warning.
func (m *Manager) publish(n Notification) {
	select {
	case m.notifications <- n:
	default:
		m.logger.Warn("Notification buffer full, dropping event",
			zap.String("kind", string(n.Kind)),
		)
	}
}
