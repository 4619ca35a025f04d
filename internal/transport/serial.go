// internal/transport/serial.go
package transport

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// serialChannel implements Channel on top of a hardware (or USB-adapter)
// serial device via go.bug.st/serial.
type serialChannel struct {
	port   serial.Port
	config Config
	logger *zap.Logger
	mutex  sync.Mutex
	closed bool
}

// openSerial opens a serial device and applies the framing configuration.
func openSerial(cfg Config, logger *zap.Logger) (Channel, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}

	switch cfg.Parity {
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityMark:
		mode.Parity = serial.MarkParity
	case ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		mode.Parity = serial.NoParity
	}

	switch cfg.StopBits {
	case 1.5:
		mode.StopBits = serial.OnePointFiveStopBits
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	port, err := serial.Open(cfg.Address, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Address, err)
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	// Hardware and DSR/DTR flow control start with the matching line asserted.
	if cfg.RTSCTS {
		if err := port.SetRTS(true); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to assert RTS: %w", err)
		}
	}
	if cfg.DSRDTR {
		if err := port.SetDTR(true); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to assert DTR: %w", err)
		}
	}

	logger.Info("Serial port opened",
		zap.String("address", cfg.Address),
		zap.Int("baud_rate", cfg.BaudRate),
		zap.Int("data_bits", cfg.DataBits),
		zap.String("parity", cfg.Parity),
	)

	return &serialChannel{
		port:   port,
		config: cfg,
		logger: logger,
	}, nil
}

func (s *serialChannel) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *serialChannel) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, err
	}
	if n != len(p) {
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(p))
	}
	return n, nil
}

func (s *serialChannel) Drain() error {
	return s.port.Drain()
}

func (s *serialChannel) SetRTS(level bool) error {
	return s.port.SetRTS(level)
}

func (s *serialChannel) SetDTR(level bool) error {
	return s.port.SetDTR(level)
}

// LineState polls the modem status bits. Devices that cannot report them
// yield an all-false snapshot rather than an error.
func (s *serialChannel) LineState() LineState {
	bits, err := s.port.GetModemStatusBits()
	if err != nil || bits == nil {
		return LineState{}
	}
	return LineState{
		CTS: bits.CTS,
		DSR: bits.DSR,
		RI:  bits.RI,
		CD:  bits.DCD,
	}
}

func (s *serialChannel) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.port.Close(); err != nil {
		s.logger.Error("Failed to close serial port",
			zap.Error(err),
			zap.String("address", s.config.Address),
		)
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	s.logger.Info("Serial port closed", zap.String("address", s.config.Address))
	return nil
}

// ListPorts returns the serial device paths present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
