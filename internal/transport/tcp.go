// internal/transport/tcp.go
package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TCPScheme prefixes addresses of network-forwarded ports, e.g. a
// ser2net or RFC 2217 gateway exposing a device as "tcp://host:4001".
const TCPScheme = "tcp://"

// tcpChannel implements Channel over a TCP connection. Framing parameters
// are owned by the remote gateway; control lines are not observable, so
// LineState reports all-false and the line setters are accepted no-ops.
type tcpChannel struct {
	conn    net.Conn
	timeout time.Duration
	logger  *zap.Logger
}

func openTCP(cfg Config, logger *zap.Logger) (Channel, error) {
	address := strings.TrimPrefix(cfg.Address, TCPScheme)

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	logger.Info("TCP channel opened", zap.String("address", address))

	return &tcpChannel{
		conn:    conn,
		timeout: cfg.ReadTimeout,
		logger:  logger,
	}, nil
}

func (t *tcpChannel) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

func (t *tcpChannel) Write(p []byte) (int, error) {
	if err := t.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return 0, err
	}
	return t.conn.Write(p)
}

func (t *tcpChannel) Drain() error {
	return nil
}

func (t *tcpChannel) SetRTS(level bool) error { return nil }

func (t *tcpChannel) SetDTR(level bool) error { return nil }

func (t *tcpChannel) LineState() LineState {
	return LineState{}
}

func (t *tcpChannel) Close() error {
	if err := t.conn.Close(); err != nil {
		t.logger.Error("Failed to close TCP channel", zap.Error(err))
		return fmt.Errorf("failed to close TCP channel: %w", err)
	}
	t.logger.Info("TCP channel closed")
	return nil
}
