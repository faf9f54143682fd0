package config

import (
	"fmt"
	"net"
	"time"

	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/tcp/defs"
)

// Default paths of the three worker configuration files
const (
	DefaultWorkerConfigPath       = "config/Satellite.Earth.properties"
	DefaultToolProviderConfigPath = "config/WebServer.properties"
)

// WorkerConfig configures a worker process from three files: the worker's
// own settings, where its tools come from, and where the dispatcher is.
type WorkerConfig struct {
	CommonConfig
	Name               string `validate:"required,max=128"`
	Endpoint           Endpoint
	ExecuteTimeout     time.Duration `validate:"gt=0"`
	ReadTimeout        time.Duration `validate:"gt=0"`
	WriteTimeout       time.Duration `validate:"gt=0"`
	RegisterAttempts   int           `validate:"min=1"`
	RegisterBackoff    time.Duration `validate:"min=0"`
	ReregisterSchedule string
	MetricsPort        int `validate:"min=0,max=65535"`

	ToolProvider      StoreConfig
	ToolServer        Endpoint
	ToolServerTimeout time.Duration `validate:"gt=0"`

	Dispatcher  Endpoint
	DialTimeout time.Duration `validate:"gt=0"`
}

// ConnectivityInfo is the descriptor the worker registers with
func (c *WorkerConfig) ConnectivityInfo() domain.ConnectivityInfo {
	return domain.ConnectivityInfo{Host: c.Endpoint.Host, Port: c.Endpoint.Port, Name: c.Name}
}

// ListenAddr is the address the worker binds to
func (c *WorkerConfig) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Endpoint.Port)
}

// LoadWorkerConfig reads the worker, tool provider and dispatcher files.
// Environment overrides use the prefixes WORKER_, TOOLS_ and DISPATCHER_.
func LoadWorkerConfig(workerPath, toolProviderPath, dispatcherPath string) (*WorkerConfig, error) {
	wp, err := LoadProperties(workerPath, "WORKER_", false)
	if err != nil {
		return nil, err
	}
	tp, err := LoadProperties(toolProviderPath, "TOOLS_", true)
	if err != nil {
		return nil, err
	}
	dp, err := LoadProperties(dispatcherPath, "DISPATCHER_", false)
	if err != nil {
		return nil, err
	}
	return workerConfigFrom(wp, tp, dp)
}

func workerConfigFrom(wp, tp, dp *Properties) (*WorkerConfig, error) {
	cfg := &WorkerConfig{
		CommonConfig:       newCommonConfig(wp),
		Name:               wp.String("NAME", ""),
		Endpoint:           readEndpoint(wp, advertisedHost(), 9001),
		ExecuteTimeout:     wp.Duration("EXECUTE_TIMEOUT", time.Minute),
		ReadTimeout:        wp.Duration("READ_TIMEOUT", defs.DefaultReadTimeout),
		WriteTimeout:       wp.Duration("WRITE_TIMEOUT", defs.DefaultWriteTimeout),
		RegisterAttempts:   wp.Int("REGISTER_ATTEMPTS", 5),
		RegisterBackoff:    wp.Duration("REGISTER_BACKOFF", 2*time.Second),
		ReregisterSchedule: wp.String("REREGISTER_SCHEDULE", ""),
		MetricsPort:        wp.Int("METRICS_PORT", 0),

		ToolProvider:      newStoreConfig(tp, "TOOL_PROVIDER", BackendHTTP),
		ToolServer:        readEndpoint(tp, "localhost", 8080),
		ToolServerTimeout: tp.Duration("TIMEOUT", 10*time.Second),

		Dispatcher:  readEndpoint(dp, "localhost", 9000),
		DialTimeout: dp.Duration("DIAL_TIMEOUT", defs.DefaultDialTimeout),
	}
	if err := joinErrs(wp, tp, dp); err != nil {
		return nil, err
	}
	if err := validateStruct("worker", cfg); err != nil {
		return nil, err
	}
	if err := validate.Var(cfg.ToolProvider.Backend, "oneof=http static redis postgres etcd"); err != nil {
		return nil, fmt.Errorf("invalid worker configuration: unknown TOOL_PROVIDER %q", cfg.ToolProvider.Backend)
	}
	if err := cfg.ToolProvider.validate("worker"); err != nil {
		return nil, err
	}
	if err := validate.Var(cfg.Endpoint.Host, "hostname|ip"); err != nil {
		return nil, fmt.Errorf("invalid worker configuration: HOST %q is not a hostname or IP", cfg.Endpoint.Host)
	}
	return cfg, nil
}

// advertisedHost is the first non-loopback IPv4 address, or 127.0.0.1
func advertisedHost() string {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
				if ip4 := ipNet.IP.To4(); ip4 != nil {
					return ip4.String()
				}
			}
		}
	}
	return "127.0.0.1"
}
