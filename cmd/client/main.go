package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/appserver.net/internal/adapter/static/toolcatalog"
	"gitlab.com/appserver.net/internal/config"
	"gitlab.com/appserver.net/internal/domain"
	logger2 "gitlab.com/appserver.net/internal/global/logger"
	"gitlab.com/appserver.net/internal/tcp/client"
)

func main() {
	configPath := flag.String("config", config.DefaultDispatcherConfigPath, "dispatcher properties file (HOST, PORT)")
	toolName := flag.String("tool", toolcatalog.QualifiedFibName, "tool to run")
	params := flag.String("params", "", "job parameters as JSON")
	fanout := flag.Int("fanout", 0, "submit jobs with parameters N..1 in parallel instead of a single job")
	timeout := flag.Duration("timeout", 5*time.Minute, "time to wait for each result")
	flag.Parse()

	if err := run(*configPath, *toolName, *params, *fanout, *timeout); err != nil {
		logger2.Error("Client failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, toolName, params string, fanout int, timeout time.Duration) error {
	dispatcher, err := config.LoadEndpoint(configPath, "DISPATCHER_", "localhost", 9000)
	if err != nil {
		return err
	}

	c := client.NewClient(logger2.Logger, client.WithRequestTimeout(timeout))

	if fanout <= 0 {
		if params != "" && !json.Valid([]byte(params)) {
			return fmt.Errorf("-params is not valid JSON: %s", params)
		}
		return submit(c, dispatcher.Addr(), domain.NewJob(toolName, json.RawMessage(params)), timeout)
	}

	var failed atomic.Int32
	var g errgroup.Group
	for i := fanout; i > 0; i-- {
		job := domain.NewJob(toolName, json.RawMessage(strconv.Itoa(i)))
		g.Go(func() error {
			if err := submit(c, dispatcher.Addr(), job, timeout); err != nil {
				failed.Add(1)
				logger2.Error("Job failed", "jobId", job.ID, "params", string(job.Parameters), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d jobs failed", n, fanout)
	}
	return nil
}

func submit(c *client.Client, addr string, job *domain.Job, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := c.Submit(ctx, addr, job)
	if err != nil {
		return err
	}
	fmt.Printf("RESULT %s(%s) = %s [%s]\n", job.ToolName, string(job.Parameters), string(result.Result), result.Worker)
	return nil
}
