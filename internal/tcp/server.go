package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/metrics"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tcp/defs"
	"gitlab.com/appserver.net/internal/tcp/frame"
)

// TCPServer accepts connections and serves exactly one message per
// connection with the handler registered for its type.
type TCPServer struct {
	name         string
	address      string
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       primary.Logger
	listener     net.Listener
	handlers     map[byte]primary.MessageHandler

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	connMu   sync.Mutex
	conns    map[net.Conn]struct{}
}

// TCPServerOption configures a TCPServer
type TCPServerOption func(*TCPServer)

// WithAddress sets the server address
func WithAddress(address string) TCPServerOption {
	return func(s *TCPServer) {
		s.address = address
	}
}

// WithName sets the name used in logs and metrics
func WithName(name string) TCPServerOption {
	return func(s *TCPServer) {
		s.name = name
	}
}

// WithReadTimeout bounds the wait for a connection's message
func WithReadTimeout(d time.Duration) TCPServerOption {
	return func(s *TCPServer) {
		s.readTimeout = d
	}
}

// WithWriteTimeout bounds writing the reply once handling is done
func WithWriteTimeout(d time.Duration) TCPServerOption {
	return func(s *TCPServer) {
		s.writeTimeout = d
	}
}

// WithHandler registers the handler for a message type
func WithHandler(msgType byte, handler primary.MessageHandler) TCPServerOption {
	return func(s *TCPServer) {
		s.handlers[msgType] = handler
	}
}

// NewTCPServer creates a new TCP server
func NewTCPServer(logger primary.Logger, options ...TCPServerOption) *TCPServer {
	server := &TCPServer{
		name:         "tcp",
		address:      ":9000", // Default address
		readTimeout:  defs.DefaultReadTimeout,
		writeTimeout: defs.DefaultWriteTimeout,
		handlers:     make(map[byte]primary.MessageHandler),
		stopCh:       make(chan struct{}),
		conns:        make(map[net.Conn]struct{}),
	}

	// Apply options
	for _, option := range options {
		option(server)
	}
	server.logger = logger.With("server", server.name)

	return server
}

// Start binds the listener and serves connections in the background
func (s *TCPServer) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	s.logger.Info("TCP server listening", "address", s.listener.Addr().String())

	// Accept connections in a goroutine
	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Addr returns the bound address; only valid after Start
func (s *TCPServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections. Connections
// still open when ctx expires are closed.
func (s *TCPServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	// Close listener
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("Failed to close listener", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.closeAllConnections()
		<-done
		return ctx.Err()
	}
}

// closeAllConnections closes all open connections
func (s *TCPServer) closeAllConnections() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	for conn := range s.conns {
		if err := conn.Close(); err != nil {
			s.logger.Debug("Failed to close connection", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

// acceptConnections accepts incoming connections
func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Error("Failed to accept connection", "error", err)
				select {
				case <-s.stopCh:
					return
				case <-time.After(defs.ConnectionRetryDelay): // Avoid tight loop on error
				}
				continue
			}
		}

		s.track(conn, true)
		s.wg.Add(1)

		// Handle connection in a goroutine
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handleConnection(conn)
		}()
	}
}

func (s *TCPServer) track(conn net.Conn, open bool) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if open {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// handleConnection reads one message, runs its handler and closes the connection
func (s *TCPServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	outcome := "ok"
	defer func() {
		metrics.TCPConnectionsTotal.WithLabelValues(s.name, outcome).Inc()
	}()

	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			s.logger.Error("Connection handler panicked", "remote", remote, "panic", r)
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		outcome = "error"
		s.logger.Error("Failed to set read deadline", "remote", remote, "error", err)
		return
	}

	// Read and parse message
	msgType, payload, err := frame.ReadMessage(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			outcome = "closed"
			return
		}
		outcome = "protocol_error"
		s.logger.Error("Failed to read message", "remote", remote, "error", err)
		if errors.Is(err, errs.ErrProtocol) {
			s.reply(conn, func() error { return frame.SendError(conn, uuid.Nil, err) })
		}
		return
	}

	// Find handler for message type
	handler, exists := s.handlers[msgType]
	if !exists {
		outcome = "unsupported"
		s.logger.Error("Unknown message type", "type", msgType, "remote", remote)
		unsupported := fmt.Errorf("%w: 0x%02x", errs.ErrUnsupportedMessageType, msgType)
		s.reply(conn, func() error { return frame.SendError(conn, uuid.Nil, unsupported) })
		return
	}

	// Handling may take as long as the handler needs (a dispatcher forward
	// carries its own deadline); the read deadline no longer applies.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		s.logger.Debug("Failed to clear deadline", "remote", remote, "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := handler.HandleMessage(ctx, &deadlineConn{Conn: conn, writeTimeout: s.writeTimeout}, payload); err != nil {
		outcome = "error"
		s.logger.Error("Error handling message", "type", defs.MessageTypeName(msgType), "remote", remote, "error", err)
	}
}

func (s *TCPServer) reply(conn net.Conn, send func() error) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	// Ignore errors here as the connection might be closing
	if err := send(); err != nil {
		s.logger.Debug("Failed to send error reply", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// deadlineConn arms the write deadline right before each write, so slow
// handling does not eat into the time allowed to deliver the reply.
type deadlineConn struct {
	net.Conn
	writeTimeout time.Duration
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}
