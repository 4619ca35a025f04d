// internal/config/preferences.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"serial-terminal/internal/transport"
)

// Preferences persists the last-used terminal settings between runs so
// a restart comes back with the same port, framing and display setup.
// It is a small key-value file, separate from the service configuration.
type Preferences struct {
	mutex sync.Mutex
	v     *viper.Viper
	path  string
}

// LoadPreferences reads the preferences file at path, creating an empty
// store when the file does not exist yet.
func LoadPreferences(path string) (*Preferences, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("session.address", "")
	v.SetDefault("session.baud_rate", 115200)
	v.SetDefault("session.data_bits", 8)
	v.SetDefault("session.parity", transport.ParityNone)
	v.SetDefault("session.stop_bits", 1.0)
	v.SetDefault("session.rtscts", false)
	v.SetDefault("session.xonxoff", false)
	v.SetDefault("session.dsrdtr", false)
	v.SetDefault("display.view_mode", "ascii")
	v.SetDefault("display.timestamps", false)
	v.SetDefault("send.terminator", "none")
	v.SetDefault("send.encoding", "utf-8")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading preferences: %w", err)
			}
		}
	}

	return &Preferences{v: v, path: path}, nil
}

// RememberSession records the last opened port configuration.
func (p *Preferences) RememberSession(cfg transport.Config) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.v.Set("session.address", cfg.Address)
	p.v.Set("session.baud_rate", cfg.BaudRate)
	p.v.Set("session.data_bits", cfg.DataBits)
	p.v.Set("session.parity", cfg.Parity)
	p.v.Set("session.stop_bits", cfg.StopBits)
	p.v.Set("session.rtscts", cfg.RTSCTS)
	p.v.Set("session.xonxoff", cfg.XONXOFF)
	p.v.Set("session.dsrdtr", cfg.DSRDTR)
}

// RememberDisplay records the view mode and timestamp toggle.
func (p *Preferences) RememberDisplay(viewMode string, timestamps bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.v.Set("display.view_mode", viewMode)
	p.v.Set("display.timestamps", timestamps)
}

// RememberSend records the terminator policy and text encoding.
func (p *Preferences) RememberSend(terminator, encoding string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.v.Set("send.terminator", terminator)
	p.v.Set("send.encoding", encoding)
}

// LastSession returns the last remembered port configuration. The
// address is empty when no port has ever been opened.
func (p *Preferences) LastSession() transport.Config {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return transport.Config{
		Address:     p.v.GetString("session.address"),
		BaudRate:    p.v.GetInt("session.baud_rate"),
		DataBits:    p.v.GetInt("session.data_bits"),
		Parity:      p.v.GetString("session.parity"),
		StopBits:    p.v.GetFloat64("session.stop_bits"),
		RTSCTS:      p.v.GetBool("session.rtscts"),
		XONXOFF:     p.v.GetBool("session.xonxoff"),
		DSRDTR:      p.v.GetBool("session.dsrdtr"),
		ReadTimeout: 50 * time.Millisecond,
	}
}

// LastDisplay returns the remembered view mode and timestamp toggle.
func (p *Preferences) LastDisplay() (viewMode string, timestamps bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.v.GetString("display.view_mode"), p.v.GetBool("display.timestamps")
}

// LastSend returns the remembered terminator policy and text encoding.
func (p *Preferences) LastSend() (terminator, encoding string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.v.GetString("send.terminator"), p.v.GetString("send.encoding")
}

// Save writes the preferences back to disk.
func (p *Preferences) Save() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
