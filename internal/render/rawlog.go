// internal/render/rawlog.go
package render

import "sync"

// RawLog accumulates every received byte regardless of view mode or
// pause state, for binary export and the byte counters. Only an explicit
// clear empties it.
type RawLog struct {
	mutex sync.Mutex
	data  []byte
	rx    uint64
	tx    uint64
}

// NewRawLog creates an empty log.
func NewRawLog() *RawLog {
	return &RawLog{}
}

// AppendRX records received bytes.
func (l *RawLog) AppendRX(data []byte) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.data = append(l.data, data...)
	l.rx += uint64(len(data))
}

// CountTX adds to the transmitted-byte counter. Outbound bytes are
// counted but not captured.
func (l *RawLog) CountTX(n int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.tx += uint64(n)
}

// Bytes returns a copy of the captured stream.
func (l *RawLog) Bytes() []byte {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	out := make([]byte, len(l.data))
	copy(out, l.data)
	return out
}

// Counters returns the received and transmitted byte totals.
func (l *RawLog) Counters() (rx, tx uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.rx, l.tx
}

// Clear empties the capture and zeroes both counters.
func (l *RawLog) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.data = nil
	l.rx = 0
	l.tx = 0
}
