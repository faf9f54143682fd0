package config

import (
	"errors"
	"fmt"
)

// ToolServerConfig configures the tool definition server. It reads the same
// file workers use to find it.
type ToolServerConfig struct {
	CommonConfig
	Endpoint Endpoint
	BindHost string
	Store    StoreConfig
	Seed     bool
}

// ListenAddr is the address the HTTP server binds to
func (c *ToolServerConfig) ListenAddr() string {
	return Endpoint{Host: c.BindHost, Port: c.Endpoint.Port}.Addr()
}

// LoadToolServerConfig reads the tool server properties; environment
// variables prefixed with TOOLS_ override file values.
func LoadToolServerConfig(path string) (*ToolServerConfig, error) {
	p, err := LoadProperties(path, "TOOLS_", false)
	if err != nil {
		return nil, err
	}
	return toolServerConfigFrom(p)
}

func toolServerConfigFrom(p *Properties) (*ToolServerConfig, error) {
	cfg := &ToolServerConfig{
		CommonConfig: newCommonConfig(p),
		Endpoint:     readEndpoint(p, "localhost", 8080),
		BindHost:     p.String("BIND_HOST", ""),
		Store:        newStoreConfig(p, "BACKEND", BackendStatic),
		Seed:         p.Bool("SEED_BUILTIN", true),
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	if err := validateStruct("tool server", cfg); err != nil {
		return nil, err
	}
	if err := validate.Var(cfg.Store.Backend, "oneof=static redis postgres etcd"); err != nil {
		return nil, fmt.Errorf("invalid tool server configuration: unknown BACKEND %q", cfg.Store.Backend)
	}
	if err := cfg.Store.validate("tool server"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func joinErrs(props ...*Properties) error {
	errs := make([]error, 0, len(props))
	for _, p := range props {
		errs = append(errs, p.Err())
	}
	return errors.Join(errs...)
}
