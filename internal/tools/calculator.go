package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"gitlab.com/appserver.net/internal/domain"
)

const KindCalculator = "calculator"

// CalculatorParams are the parameters of a calculator job
type CalculatorParams struct {
	Operation string   `json:"operation"`
	Operand1  *float64 `json:"operand1"`
	Operand2  *float64 `json:"operand2"`
}

// CalculatorResult is returned by the calculator tool
type CalculatorResult struct {
	Result float64 `json:"result"`
}

// CalculatorTool provides basic arithmetic operations
type CalculatorTool struct{}

var _ Tool = (*CalculatorTool)(nil)

func NewCalculatorTool(domain.ToolDefinition) (Tool, error) {
	return &CalculatorTool{}, nil
}

func (t *CalculatorTool) Execute(_ context.Context, params json.RawMessage) (any, error) {
	var p CalculatorParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if p.Operand1 == nil || p.Operand2 == nil {
		return nil, fmt.Errorf("missing 'operand1' or 'operand2' parameter (number expected)")
	}
	op1, op2 := *p.Operand1, *p.Operand2

	var result float64
	switch p.Operation {
	case "add":
		result = op1 + op2
	case "subtract":
		result = op1 - op2
	case "multiply":
		result = op1 * op2
	case "divide":
		if op2 == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		result = op1 / op2
	default:
		return nil, fmt.Errorf("unknown operation: %q", p.Operation)
	}

	return CalculatorResult{Result: result}, nil
}
