package session

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/inkctl/internal/protocol/frame"
)

const DefaultPort = 9944

var (
	ErrHostRequired = errors.New("session: host required")
	ErrInvalidPort  = errors.New("session: invalid port")
)

// Config defines connection and per-call timeouts for one printer.
type Config struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Limits         frame.Limits
}

// DefaultConfig returns defaults for everything but the host.
func DefaultConfig() Config {
	return Config{
		Port:           DefaultPort,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		Limits:         frame.DefaultLimits(),
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	c.Host = strings.TrimSpace(c.Host)
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Limits.MaxPayloadBytes <= 0 {
		c.Limits = def.Limits
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrHostRequired
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

func (c Config) Address() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.Port))
}
