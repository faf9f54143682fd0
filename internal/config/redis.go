package config

type RedisConfig struct {
	DB       int `validate:"min=0"`
	Addr     string
	Password string
}

func NewRedisConfig(p *Properties) *RedisConfig {
	return &RedisConfig{
		DB:       p.Int("REDIS_DB", 0),
		Addr:     p.String("REDIS_ADDR", "localhost:6379"),
		Password: p.String("REDIS_PASSWORD", ""),
	}
}
