package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"gitlab.com/appserver.net/internal/domain"
)

const (
	KindFib = "fib"

	// fib(93) is the largest Fibonacci number that fits in a uint64
	maxFibInput = 93
)

// FibConfig is the optional definition config of a fib tool
type FibConfig struct {
	Max int `json:"max"`
}

// FibTool computes the n-th Fibonacci number
type FibTool struct {
	max int
}

var _ Tool = (*FibTool)(nil)

func NewFibTool(def domain.ToolDefinition) (Tool, error) {
	cfg := FibConfig{Max: maxFibInput}
	if len(def.Config) > 0 {
		if err := json.Unmarshal(def.Config, &cfg); err != nil {
			return nil, fmt.Errorf("invalid fib config: %w", err)
		}
	}
	if cfg.Max <= 0 || cfg.Max > maxFibInput {
		cfg.Max = maxFibInput
	}
	return &FibTool{max: cfg.Max}, nil
}

func (t *FibTool) Execute(ctx context.Context, params json.RawMessage) (any, error) {
	var n int
	if err := json.Unmarshal(params, &n); err != nil {
		return nil, fmt.Errorf("invalid parameter (integer expected): %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("invalid parameter %d: must not be negative", n)
	}
	if n > t.max {
		return nil, fmt.Errorf("invalid parameter %d: exceeds maximum %d", n, t.max)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Fib(n), nil
}

// Fib returns the n-th Fibonacci number, fib(0) = 0 and fib(1) = 1
func Fib(n int) uint64 {
	var a, b uint64 = 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}
