package config

// Backends a tool definition store can live in
const (
	BackendStatic   = "static"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendEtcd     = "etcd"
	// BackendHTTP is only valid for workers: definitions come from a tool server
	BackendHTTP = "http"
)

// CommonConfig holds settings every process reads
type CommonConfig struct {
	LogLevel string `validate:"oneof=debug info warn error"`
	Tracing  bool
}

func newCommonConfig(p *Properties) CommonConfig {
	return CommonConfig{
		LogLevel: p.String("LOG_LEVEL", "info"),
		Tracing:  p.Bool("TRACING", false),
	}
}

// StoreConfig selects and configures a tool definition store
type StoreConfig struct {
	Backend  string
	Redis    *RedisConfig
	Postgres *PostgresConfig
	Etcd     *EtcdConfig
}

func newStoreConfig(p *Properties, key, def string) StoreConfig {
	return StoreConfig{
		Backend:  p.String(key, def),
		Redis:    NewRedisConfig(p),
		Postgres: NewPostgresConfig(p),
		Etcd:     NewEtcdConfig(p),
	}
}

func (s StoreConfig) validate(name string) error {
	switch s.Backend {
	case BackendRedis:
		return validateStruct(name+" redis", s.Redis)
	case BackendEtcd:
		return validateStruct(name+" etcd", s.Etcd)
	}
	return nil
}
