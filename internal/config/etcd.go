package config

import "time"

type EtcdConfig struct {
	Endpoints   []string `validate:"min=1,dive,required"`
	Prefix      string
	DialTimeout time.Duration
}

func NewEtcdConfig(p *Properties) *EtcdConfig {
	return &EtcdConfig{
		Endpoints:   p.List("ETCD_ENDPOINTS", []string{"localhost:2379"}),
		Prefix:      p.String("ETCD_PREFIX", ""),
		DialTimeout: p.Duration("ETCD_DIAL_TIMEOUT", 5*time.Second),
	}
}
