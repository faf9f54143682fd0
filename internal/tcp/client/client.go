package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tcp/defs"
	"gitlab.com/appserver.net/internal/tcp/frame"
)

var (
	_ secondary.JobForwarder = (*Client)(nil)
	_ secondary.Registrar    = (*Client)(nil)
)

// Client opens one connection per exchange, the same way the servers in
// this module expect to be talked to.
type Client struct {
	dialTimeout    time.Duration
	requestTimeout time.Duration
	logger         primary.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithDialTimeout bounds connection establishment
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// WithRequestTimeout bounds a whole request/reply exchange
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// NewClient creates a new client
func NewClient(logger primary.Logger, options ...ClientOption) *Client {
	c := &Client{
		dialTimeout:    defs.DefaultDialTimeout,
		requestTimeout: defs.DefaultForwardTimeout,
		logger:         logger,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Forward sends job to a worker and waits for its reply. Transport failures
// wrap errs.ErrWorkerUnreachable (and errs.ErrTimeout when a deadline
// expired); a failure reported by the worker comes back as *errs.RemoteError.
func (c *Client) Forward(ctx context.Context, worker domain.ConnectivityInfo, job *domain.Job) (*domain.JobResult, error) {
	result, err := c.roundTrip(ctx, worker.Addr(), job)
	if err != nil {
		var remote *errs.RemoteError
		if errors.As(err, &remote) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s at %s: %w", errs.ErrWorkerUnreachable, worker.Name, worker.Addr(), err)
	}
	return result, nil
}

// Submit sends job to the dispatcher and waits for the relayed result.
func (c *Client) Submit(ctx context.Context, dispatcherAddr string, job *domain.Job) (*domain.JobResult, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return c.roundTrip(ctx, dispatcherAddr, job)
}

// Register announces info to the dispatcher. No acknowledgement is expected.
func (c *Client) Register(ctx context.Context, dispatcherAddr string, info domain.ConnectivityInfo) error {
	conn, err := c.dial(ctx, dispatcherAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := frame.SendJSON(conn, defs.MsgRegisterWorker, info); err != nil {
		return classify(err)
	}

	c.logger.Info("Sent worker registration", "worker", info.Name, "dispatcher", dispatcherAddr)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, addr string, job *domain.Job) (*domain.JobResult, error) {
	conn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// Closing the connection is the only way to interrupt a blocked read.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := frame.SendJSON(conn, defs.MsgJobRequest, job); err != nil {
		return nil, classify(err)
	}

	result, err := frame.ReadReply(conn, job.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrTimeout, ctxErr)
		}
		return nil, classify(err)
	}
	return result, nil
}

func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to connect to %s: %w", addr, err))
	}

	deadline := time.Now().Add(c.requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	return conn, nil
}

// classify marks expired deadlines as timeouts
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", errs.ErrTimeout, err)
	}
	return err
}
