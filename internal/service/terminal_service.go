// internal/service/terminal_service.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/render"
	"serial-terminal/internal/send"
	"serial-terminal/internal/session"
	"serial-terminal/internal/transport"
)

// ErrRepeatActive is returned when a repeating send is already running.
var ErrRepeatActive = errors.New("repeat send already active")

// Snapshot is the terminal state as one consistent value.
type Snapshot struct {
	Open       bool                `json:"open"`
	Config     *transport.Config   `json:"config,omitempty"`
	Paused     bool                `json:"paused"`
	ViewMode   string              `json:"view_mode"`
	Timestamps bool                `json:"timestamps"`
	RXBytes    uint64              `json:"rx_bytes"`
	TXBytes    uint64              `json:"tx_bytes"`
	Lines      transport.LineState `json:"lines"`
	LastError  string              `json:"last_error,omitempty"`
}

// TerminalService is the foreground of the terminal. It consumes the
// session manager's ordered notification stream on a single goroutine,
// maintains the rendered document and the raw log, and exposes the
// user-facing operations. Pausing suspends rendering only: bytes keep
// flowing into the raw log and the counters.
type TerminalService struct {
	manager *session.Manager
	bus     *EventBus
	logger  *zap.Logger

	mutex     sync.Mutex
	renderer  *render.Renderer
	rawLog    *render.RawLog
	paused    bool
	open      bool
	config    *transport.Config
	lines     transport.LineState
	lastError string

	repeatCancel context.CancelFunc

	pumpDone chan struct{}
}

// NewTerminalService creates the service around an existing manager.
func NewTerminalService(manager *session.Manager, bus *EventBus, logger *zap.Logger) *TerminalService {
	return &TerminalService{
		manager:  manager,
		bus:      bus,
		logger:   logger,
		renderer: render.NewRenderer(),
		rawLog:   render.NewRawLog(),
		pumpDone: make(chan struct{}),
	}
}

// Start launches the session loop and the notification pump.
func (s *TerminalService) Start() {
	go s.manager.Run()
	go s.pump()
}

// Stop winds the service down: the repeating send, the session loop and
// the pump all finish before Stop returns.
func (s *TerminalService) Stop() {
	s.StopRepeat()
	s.manager.Stop()

	select {
	case <-s.pumpDone:
	case <-time.After(time.Second):
		s.logger.Warn("Timed out waiting for notification pump to stop")
	}
}

// pump applies each notification to the foreground state in delivery
// order, then republishes it for presentation-layer subscribers. Once
// the session loop has exited, the queue is drained and the pump stops.
func (s *TerminalService) pump() {
	defer close(s.pumpDone)

	for {
		select {
		case n := <-s.manager.Notifications():
			s.apply(n)
			s.bus.Publish(n)
		case <-s.manager.Done():
			for {
				select {
				case n := <-s.manager.Notifications():
					s.apply(n)
					s.bus.Publish(n)
				default:
					return
				}
			}
		}
	}
}

func (s *TerminalService) apply(n session.Notification) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch n.Kind {
	case session.KindData:
		s.rawLog.AppendRX(n.Data)
		if !s.paused {
			s.renderer.Write(n.Data)
		}
	case session.KindStatus:
		s.open = n.Open
		s.config = n.Config
	case session.KindError:
		s.lastError = n.Message
		s.logger.Warn("Session error", zap.String("message", n.Message))
	case session.KindLineState:
		if n.Lines != nil {
			s.lines = *n.Lines
		}
	}
}

// Open requests the session to open (or reopen) with cfg. Validation
// errors are synchronous; the open itself is asynchronous and reported
// through the event stream.
func (s *TerminalService) Open(cfg transport.Config) error {
	return s.manager.ConfigureAndOpen(cfg)
}

// Close closes the session, if open.
func (s *TerminalService) Close() {
	s.manager.ClosePort()
}

// SendText encodes user text and writes it to the session. Returns the
// number of bytes queued for transmission.
func (s *TerminalService) SendText(text, terminator, encodingName string) (int, error) {
	term, err := send.ParseTerminator(terminator)
	if err != nil {
		return 0, err
	}
	payload, err := send.EncodeText(text, term, encodingName)
	if err != nil {
		return 0, err
	}
	s.transmit(payload)
	return len(payload), nil
}

// SendHex parses free-form hex input and writes it to the session.
func (s *TerminalService) SendHex(input, terminator string) (int, error) {
	term, err := send.ParseTerminator(terminator)
	if err != nil {
		return 0, err
	}
	payload, err := send.EncodeHex(input, term)
	if err != nil {
		return 0, err
	}
	s.transmit(payload)
	return len(payload), nil
}

// SendFile streams a file through the session in chunks.
func (s *TerminalService) SendFile(ctx context.Context, path string, chunkSize int, delay time.Duration, onProgress func(send.Progress)) error {
	sender := send.NewFileSender(txWriter{s}, s.logger)
	if chunkSize > 0 {
		sender.ChunkSize = chunkSize
	}
	sender.Delay = delay
	return sender.Send(ctx, path, onProgress)
}

// StartRepeat transmits the payload now and again every interval until
// StopRepeat or Stop. Only one repeating send runs at a time.
func (s *TerminalService) StartRepeat(payload []byte, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("repeat interval must be positive")
	}

	s.mutex.Lock()
	if s.repeatCancel != nil {
		s.mutex.Unlock()
		return ErrRepeatActive
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.repeatCancel = cancel
	s.mutex.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.transmit(payload)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.transmit(payload)
			}
		}
	}()

	s.logger.Info("Repeat send started",
		zap.Int("bytes", len(payload)),
		zap.Duration("interval", interval),
	)
	return nil
}

// StopRepeat stops the repeating send. Safe to call when none is active.
func (s *TerminalService) StopRepeat() {
	s.mutex.Lock()
	cancel := s.repeatCancel
	s.repeatCancel = nil
	s.mutex.Unlock()

	if cancel != nil {
		cancel()
		s.logger.Info("Repeat send stopped")
	}
}

// transmit writes the payload and counts it, open or not. The manager
// drops writes on a closed session; the count reflects the attempt the
// same way the raw log reflects received bytes.
func (s *TerminalService) transmit(payload []byte) {
	if len(payload) == 0 {
		return
	}
	s.manager.Write(payload)
	s.rawLog.CountTX(len(payload))
}

// SetRTS sets the RTS line.
func (s *TerminalService) SetRTS(level bool) {
	s.manager.SetRTS(level)
}

// SetDTR sets the DTR line.
func (s *TerminalService) SetDTR(level bool) {
	s.manager.SetDTR(level)
}

// SetPaused toggles display pause. Incoming bytes are still logged and
// counted while paused; they are simply not rendered.
func (s *TerminalService) SetPaused(paused bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.paused = paused
}

// Clear resets the rendered document, the render state, the raw log and
// both counters. The view mode and timestamp setting survive.
func (s *TerminalService) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.renderer.Reset()
	s.rawLog.Clear()
	s.lastError = ""
}

// SetViewMode switches the display between ascii, hex and ascii+hex.
func (s *TerminalService) SetViewMode(name string) error {
	mode, err := render.ParseMode(name)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.renderer.SetMode(mode)
	return nil
}

// SetTimestamps toggles per-line timestamps for lines rendered from now on.
func (s *TerminalService) SetTimestamps(on bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.renderer.SetTimestamps(on)
}

// DisplayText returns the rendered document.
func (s *TerminalService) DisplayText() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.renderer.Document().String()
}

// RawLogBytes returns a copy of the raw received bytes for export.
func (s *TerminalService) RawLogBytes() []byte {
	return s.rawLog.Bytes()
}

// Status returns a consistent snapshot of the terminal state.
func (s *TerminalService) Status() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rx, tx := s.rawLog.Counters()
	return Snapshot{
		Open:       s.open,
		Config:     s.config,
		Paused:     s.paused,
		ViewMode:   s.renderer.Mode().String(),
		Timestamps: s.renderer.Timestamps(),
		RXBytes:    rx,
		TXBytes:    tx,
		Lines:      s.lines,
		LastError:  s.lastError,
	}
}

// txWriter adapts the service transmit path to the file sender.
type txWriter struct {
	s *TerminalService
}

func (w txWriter) Write(payload []byte) {
	w.s.transmit(payload)
}
