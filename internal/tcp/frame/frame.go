package frame

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tcp/defs"
)

// ReadMessage reads one frame. A connection closed before any header byte
// yields io.EOF; every other malformed input wraps errs.ErrProtocol.
func ReadMessage(r io.Reader) (byte, []byte, error) {
	// Read message header
	header := make([]byte, defs.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, fmt.Errorf("%w: truncated header", errs.ErrProtocol)
		}
		return 0, nil, err
	}

	// Parse header
	magic := binary.BigEndian.Uint16(header[0:2])
	msgType := header[2]
	version := header[3]
	payloadLen := binary.BigEndian.Uint32(header[4:8])

	if magic != defs.MagicNumber {
		return 0, nil, fmt.Errorf("%w: invalid magic number: %x", errs.ErrProtocol, magic)
	}
	if version != defs.ProtocolVersion {
		return 0, nil, fmt.Errorf("%w: unsupported protocol version: %d", errs.ErrProtocol, version)
	}
	if payloadLen > defs.MaxPayloadSize {
		return 0, nil, fmt.Errorf("%w: payload too large: %d bytes", errs.ErrProtocol, payloadLen)
	}

	// Read payload
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, fmt.Errorf("%w: truncated payload", errs.ErrProtocol)
		}
		return 0, nil, err
	}

	return msgType, payload, nil
}

// SendMessage writes one frame
func SendMessage(w io.Writer, msgType byte, payload []byte) error {
	if len(payload) > defs.MaxPayloadSize {
		return fmt.Errorf("%w: payload too large: %d bytes", errs.ErrProtocol, len(payload))
	}

	// Header and payload go out in a single write so a frame is never split
	// across two writes on the same connection.
	buf := make([]byte, defs.HeaderSize+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], defs.MagicNumber)
	buf[2] = msgType
	buf[3] = defs.ProtocolVersion
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[defs.HeaderSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write %s message: %w", defs.MessageTypeName(msgType), err)
	}
	return nil
}

// SendJSON marshals v and writes it as one frame
func SendJSON(w io.Writer, msgType byte, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", defs.MessageTypeName(msgType), err)
	}
	return SendMessage(w, msgType, payload)
}

// Decode unmarshals a frame payload; bad JSON is a protocol error.
func Decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrProtocol, err)
	}
	return nil
}

// SendError reports err to the peer as an ERROR frame
func SendError(w io.Writer, jobID uuid.UUID, err error) error {
	code, kind := errs.Code(err)
	errorData := defs.ErrorData{
		Code:    code,
		Kind:    kind,
		Message: errorMessage(err),
	}
	if jobID != uuid.Nil {
		errorData.JobID = &jobID
	}
	return SendJSON(w, defs.MsgError, errorData)
}

// A relayed RemoteError keeps the worker's original message instead of
// being prefixed with its kind a second time.
func errorMessage(err error) string {
	var remote *errs.RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}

// ReadReply reads the single reply to a JOB_REQUEST and checks that it
// belongs to jobID.
func ReadReply(r io.Reader, jobID uuid.UUID) (*domain.JobResult, error) {
	msgType, payload, err := ReadMessage(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: connection closed before reply", errs.ErrProtocol)
		}
		return nil, err
	}

	switch msgType {
	case defs.MsgJobResult:
		var result domain.JobResult
		if err := Decode(payload, &result); err != nil {
			return nil, err
		}
		if result.JobID != jobID {
			return nil, fmt.Errorf("%w: reply for job %s, expected %s", errs.ErrProtocol, result.JobID, jobID)
		}
		return &result, nil
	case defs.MsgError:
		var errorData defs.ErrorData
		if err := Decode(payload, &errorData); err != nil {
			return nil, err
		}
		if errorData.JobID != nil && *errorData.JobID != jobID {
			return nil, fmt.Errorf("%w: error for job %s, expected %s", errs.ErrProtocol, *errorData.JobID, jobID)
		}
		return nil, &errs.RemoteError{Code: errorData.Code, Kind: errorData.Kind, Message: errorData.Message}
	default:
		return nil, fmt.Errorf("%w: unexpected reply type 0x%02x", errs.ErrProtocol, msgType)
	}
}
