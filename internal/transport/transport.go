// internal/transport/transport.go
package transport

import (
	"errors"
	"fmt"
	"time"
)

// Channel is an open duplex byte connection to a transport. Reads are
// bounded by the read timeout configured at open time, so a silent
// device never blocks the caller for long.
type Channel interface {
	// Read reads up to len(p) bytes. A timed-out read returns (0, nil).
	Read(p []byte) (int, error)

	// Write writes the whole payload or returns an error.
	Write(p []byte) (int, error)

	// Drain blocks until buffered output has been transmitted.
	Drain() error

	// SetRTS and SetDTR set the outbound control lines.
	SetRTS(level bool) error
	SetDTR(level bool) error

	// LineState reports the modem status lines. Best-effort: a transport
	// that cannot report a line reports it as false.
	LineState() LineState

	Close() error
}

// LineState holds the four modem status signals.
type LineState struct {
	CTS bool `json:"cts"`
	DSR bool `json:"dsr"`
	RI  bool `json:"ri"`
	CD  bool `json:"cd"`
}

// Parity values accepted by Config.
const (
	ParityNone  = "none"
	ParityEven  = "even"
	ParityOdd   = "odd"
	ParityMark  = "mark"
	ParitySpace = "space"
)

// Config describes how to open a channel. Address selects the transport
// kind: "loop://" is an in-memory loopback, "tcp://host:port" a network
// forwarded port, anything else a serial device path.
type Config struct {
	Address     string        `json:"address"`
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	Parity      string        `json:"parity"`
	StopBits    float64       `json:"stop_bits"`
	RTSCTS      bool          `json:"rtscts"`
	XONXOFF     bool          `json:"xonxoff"`
	DSRDTR      bool          `json:"dsrdtr"`
	ReadTimeout time.Duration `json:"read_timeout"`
}

// DefaultConfig returns a 115200 8N1 configuration with a 50ms read timeout.
func DefaultConfig(address string) Config {
	return Config{
		Address:     address,
		BaudRate:    115200,
		DataBits:    8,
		Parity:      ParityNone,
		StopBits:    1,
		ReadTimeout: 50 * time.Millisecond,
	}
}

// Validation errors. These are configuration errors: they are reported
// before any I/O is attempted.
var (
	ErrAddressRequired = errors.New("transport address is required")
	ErrClosed          = errors.New("channel is closed")
)

// Validate rejects any field combination the transports cannot accept.
func (c *Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d: must be positive", c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("invalid data bits %d: must be 5-8", c.DataBits)
	}
	switch c.Parity {
	case ParityNone, ParityEven, ParityOdd, ParityMark, ParitySpace:
	default:
		return fmt.Errorf("invalid parity %q: must be one of none, even, odd, mark, space", c.Parity)
	}
	switch c.StopBits {
	case 1, 1.5, 2:
	default:
		return fmt.Errorf("invalid stop bits %v: must be 1, 1.5 or 2", c.StopBits)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout %v: must be positive", c.ReadTimeout)
	}
	return nil
}

// Describe returns the conventional short form, e.g. "/dev/ttyUSB0 @ 115200 (8N1)".
func (c *Config) Describe() string {
	p := "N"
	switch c.Parity {
	case ParityEven:
		p = "E"
	case ParityOdd:
		p = "O"
	case ParityMark:
		p = "M"
	case ParitySpace:
		p = "S"
	}
	return fmt.Sprintf("%s @ %d (%d%s%g)", c.Address, c.BaudRate, c.DataBits, p, c.StopBits)
}
