package config

import (
	"time"

	"gitlab.com/appserver.net/internal/tcp/defs"
)

// DefaultDispatcherConfigPath is read when no path is given on the command line
const DefaultDispatcherConfigPath = "config/Server.properties"

// DispatcherConfig configures the dispatcher process. HOST and PORT are
// also what workers and clients connect to.
type DispatcherConfig struct {
	CommonConfig
	Endpoint       Endpoint
	BindHost       string
	AdminPort      int           `validate:"min=0,max=65535"`
	ReadTimeout    time.Duration `validate:"gt=0"`
	WriteTimeout   time.Duration `validate:"gt=0"`
	DialTimeout    time.Duration `validate:"gt=0"`
	ForwardTimeout time.Duration `validate:"gt=0"`
}

// ListenAddr is the address the job port binds to
func (c *DispatcherConfig) ListenAddr() string {
	return Endpoint{Host: c.BindHost, Port: c.Endpoint.Port}.Addr()
}

// LoadDispatcherConfig reads the dispatcher properties; environment variables
// prefixed with DISPATCHER_ override file values.
func LoadDispatcherConfig(path string) (*DispatcherConfig, error) {
	p, err := LoadProperties(path, "DISPATCHER_", false)
	if err != nil {
		return nil, err
	}
	return dispatcherConfigFrom(p)
}

func dispatcherConfigFrom(p *Properties) (*DispatcherConfig, error) {
	cfg := &DispatcherConfig{
		CommonConfig:   newCommonConfig(p),
		Endpoint:       readEndpoint(p, "localhost", 9000),
		BindHost:       p.String("BIND_HOST", ""),
		AdminPort:      p.Int("ADMIN_PORT", 0),
		ReadTimeout:    p.Duration("READ_TIMEOUT", defs.DefaultReadTimeout),
		WriteTimeout:   p.Duration("WRITE_TIMEOUT", defs.DefaultWriteTimeout),
		DialTimeout:    p.Duration("DIAL_TIMEOUT", defs.DefaultDialTimeout),
		ForwardTimeout: p.Duration("FORWARD_TIMEOUT", defs.DefaultForwardTimeout),
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := validateStruct("dispatcher", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
