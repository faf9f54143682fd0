package domain

import (
	"net"
	"strconv"
)

// ConnectivityInfo identifies a network endpoint. Workers register with it
// and the dispatcher dials it; registry identity is Name.
type ConnectivityInfo struct {
	Host string `json:"host" validate:"required,hostname|ip"`
	Port int    `json:"port" validate:"min=1,max=65535"`
	Name string `json:"name" validate:"required,max=128"`
}

// Addr returns host:port suitable for net.Dial.
func (c ConnectivityInfo) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WorkerStatus represents a registered worker as reported by the admin API
type WorkerStatus struct {
	ConnectivityInfo
	RotationIndex int  `json:"rotation_index"`
	NextInLine    bool `json:"next_in_line"`
}
