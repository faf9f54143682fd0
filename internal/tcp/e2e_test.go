package tcp_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/adapter/static/toolcatalog"
	"gitlab.com/appserver.net/internal/core/services/balancer"
	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/core/services/registry"
	"gitlab.com/appserver.net/internal/core/services/satellite"
	"gitlab.com/appserver.net/internal/core/services/toolcache"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tcp"
	"gitlab.com/appserver.net/internal/tcp/client"
	"gitlab.com/appserver.net/internal/tcp/defs"
	"gitlab.com/appserver.net/internal/tcp/frame"
	"gitlab.com/appserver.net/internal/tcp/handlers"
	"gitlab.com/appserver.net/internal/tools"
)

type cluster struct {
	t          *testing.T
	dispatcher *dispatch.Dispatcher
	addr       string
	client     *client.Client
}

func startServer(t *testing.T, name string, opts ...tcp.TCPServerOption) *tcp.TCPServer {
	t.Helper()
	opts = append([]tcp.TCPServerOption{tcp.WithAddress("127.0.0.1:0"), tcp.WithName(name)}, opts...)
	server := tcp.NewTCPServer(logging.NewNopLogger(), opts...)
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func startDispatcher(t *testing.T) *cluster {
	t.Helper()
	logger := logging.NewNopLogger()
	forwarder := client.NewClient(logger, client.WithDialTimeout(time.Second), client.WithRequestTimeout(5*time.Second))
	dispatcher := dispatch.NewDispatcher(registry.NewWorkerRegistry(), balancer.NewRoundRobin(), forwarder, logger)

	server := startServer(t, "dispatcher",
		tcp.WithHandler(defs.MsgRegisterWorker, handlers.NewWorkerRegistrationHandler(dispatcher, logger)),
		tcp.WithHandler(defs.MsgJobRequest, handlers.NewTCPJobRequestHandler(dispatcher, logger)),
	)

	return &cluster{
		t:          t,
		dispatcher: dispatcher,
		addr:       server.Addr().String(),
		client:     client.NewClient(logger, client.WithRequestTimeout(5*time.Second)),
	}
}

// addWorker starts a worker, registers it and waits until the dispatcher knows it
func (c *cluster) addWorker(name string) {
	c.t.Helper()
	logger := logging.NewNopLogger()

	var sat *satellite.Satellite
	server := startServer(c.t, name, tcp.WithHandler(defs.MsgJobRequest,
		handlers.NewJobExecutionHandler(satelliteFunc(func() *satellite.Satellite { return sat }), logger)))

	port := server.Addr().(*net.TCPAddr).Port
	info := domain.ConnectivityInfo{Host: "127.0.0.1", Port: port, Name: name}
	cache := toolcache.NewCache(toolcatalog.Builtin(), tools.NewDefaultFactory(), logger)
	sat = satellite.NewSatellite(info, c.addr, cache, c.client,
		satellite.Options{RegisterAttempts: 3, RegisterBackoff: 10 * time.Millisecond}, logger)

	want := len(c.dispatcher.Workers()) + 1
	require.NoError(c.t, sat.Register(context.Background()))
	c.waitForWorkers(want)
}

func (c *cluster) waitForWorkers(n int) {
	c.t.Helper()
	require.Eventually(c.t, func() bool { return len(c.dispatcher.Workers()) >= n }, 2*time.Second, 10*time.Millisecond)
}

func (c *cluster) submit(toolName string, params string) (*domain.JobResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Submit(ctx, c.addr, domain.NewJob(toolName, json.RawMessage(params)))
}

// satelliteFunc defers to a satellite created after its server is bound
type satelliteFunc func() *satellite.Satellite

func (f satelliteFunc) Register(ctx context.Context) error {
	return f().Register(ctx)
}

func (f satelliteFunc) Execute(ctx context.Context, job *domain.Job) (*domain.JobResult, error) {
	return f().Execute(ctx, job)
}

func TestEchoThroughDispatcher(t *testing.T) {
	c := startDispatcher(t)
	c.addWorker("Earth")

	result, err := c.submit("echo", `42`)
	require.NoError(t, err)
	require.JSONEq(t, `42`, string(result.Result))
	require.Equal(t, "Earth", result.Worker)
}

func TestFibThroughDispatcher(t *testing.T) {
	c := startDispatcher(t)
	c.addWorker("Earth")

	result, err := c.submit(toolcatalog.QualifiedFibName, `20`)
	require.NoError(t, err)
	require.JSONEq(t, `6765`, string(result.Result))
}

func TestJobsAlternateBetweenWorkers(t *testing.T) {
	c := startDispatcher(t)
	c.addWorker("Earth")
	c.addWorker("Mars")

	var workers []string
	for i := 0; i < 4; i++ {
		result, err := c.submit("echo", `"ping"`)
		require.NoError(t, err)
		workers = append(workers, result.Worker)
	}
	require.Equal(t, []string{"Earth", "Mars", "Earth", "Mars"}, workers)
}

func TestUnknownToolLeavesWorkerServing(t *testing.T) {
	c := startDispatcher(t)
	c.addWorker("Earth")

	_, err := c.submit("nope", `1`)
	require.ErrorIs(t, err, errs.ErrUnknownTool)

	var remote *errs.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, errs.CodeUnknownTool, remote.Code)

	result, err := c.submit("echo", `7`)
	require.NoError(t, err)
	require.JSONEq(t, `7`, string(result.Result))
}

func TestToolFailureIsRelayed(t *testing.T) {
	c := startDispatcher(t)
	c.addWorker("Earth")

	_, err := c.submit("calculator", `{"operation":"divide","operand1":1,"operand2":0}`)
	require.ErrorIs(t, err, errs.ErrToolExecution)
	require.Contains(t, err.Error(), "division by zero")
}

func TestNoWorkersRegistered(t *testing.T) {
	c := startDispatcher(t)

	_, err := c.submit("echo", `1`)
	require.ErrorIs(t, err, errs.ErrNoWorkersAvailable)
}

func TestUnreachableWorker(t *testing.T) {
	c := startDispatcher(t)

	// Reserve a port and release it so nothing is listening there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	require.NoError(t, c.client.Register(context.Background(), c.addr,
		domain.ConnectivityInfo{Host: "127.0.0.1", Port: port, Name: "Ghost"}))
	c.waitForWorkers(1)

	_, err = c.submit("echo", `1`)
	require.ErrorIs(t, err, errs.ErrWorkerUnreachable)

	// The dispatcher keeps serving and the rotation has moved on to Earth.
	c.addWorker("Earth")
	result, err := c.submit("echo", `2`)
	require.NoError(t, err)
	require.Equal(t, "Earth", result.Worker)
}

func exchange(t *testing.T, addr string, raw []byte) defs.ErrorData {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	_, err = conn.Write(raw)
	require.NoError(t, err)

	msgType, payload, err := frame.ReadMessage(conn)
	require.NoError(t, err)
	require.Equal(t, defs.MsgError, msgType)

	var data defs.ErrorData
	require.NoError(t, json.Unmarshal(payload, &data))
	return data
}

func TestUnsupportedMessageType(t *testing.T) {
	c := startDispatcher(t)

	raw := []byte{0xCA, 0xFE, defs.MsgJobResult, defs.ProtocolVersion, 0, 0, 0, 2, '{', '}'}
	data := exchange(t, c.addr, raw)
	require.Equal(t, errs.CodeUnsupportedMessageType, data.Code)
}

func TestMalformedFrame(t *testing.T) {
	c := startDispatcher(t)

	data := exchange(t, c.addr, []byte{0xDE, 0xAD, 0x03, 0x01, 0, 0, 0, 0})
	require.Equal(t, errs.CodeProtocol, data.Code)
	require.Nil(t, data.JobID)

	// The server is still accepting work.
	_, err := c.submit("echo", `1`)
	require.ErrorIs(t, err, errs.ErrNoWorkersAvailable)
}

func TestMalformedJobPayload(t *testing.T) {
	c := startDispatcher(t)

	raw := []byte{0xCA, 0xFE, defs.MsgJobRequest, defs.ProtocolVersion, 0, 0, 0, 3, 'n', 'o', 'p'}
	data := exchange(t, c.addr, raw)
	require.Equal(t, errs.CodeProtocol, data.Code)
}

func TestReplyCarriesJobID(t *testing.T) {
	c := startDispatcher(t)
	c.addWorker("Earth")

	job := &domain.Job{ID: uuid.New(), ToolName: "echo", Parameters: json.RawMessage(`true`)}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := c.client.Submit(ctx, c.addr, job)
	require.NoError(t, err)
	require.Equal(t, job.ID, result.JobID)
}
