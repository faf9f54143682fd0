package defs

import "time"

// Protocol constants
const (
	MagicNumber     uint16 = 0xCAFE
	ProtocolVersion byte   = 1
	HeaderSize             = 8
	MaxPayloadSize         = 16 << 20

	// Message types
	MsgRegisterWorker byte = 0x01
	MsgJobRequest     byte = 0x03
	MsgJobResult      byte = 0x05
	MsgError          byte = 0x07

	// Configuration constants
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultDialTimeout    = 5 * time.Second
	DefaultForwardTimeout = 5 * time.Minute
	ConnectionRetryDelay  = 1 * time.Second
)

// MessageTypeName returns a printable name for a message type
func MessageTypeName(msgType byte) string {
	switch msgType {
	case MsgRegisterWorker:
		return "REGISTER_WORKER"
	case MsgJobRequest:
		return "JOB_REQUEST"
	case MsgJobResult:
		return "JOB_RESULT"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
