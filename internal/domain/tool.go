package domain

import "encoding/json"

// ToolDefinition is what a tool provider hands out for a tool name.
// Kind selects the implementation, Config parameterises it.
type ToolDefinition struct {
	Name   string          `json:"name" db:"name"`
	Kind   string          `json:"kind" db:"kind"`
	Config json.RawMessage `json:"config,omitempty" db:"config"`
}

type ToolTable struct {
	Name   string
	Kind   string
	Config string
}

func (t ToolTable) TableName() string {
	return "tools"
}

func GetToolTable() ToolTable {
	return ToolTable{
		Name:   "name",
		Kind:   "kind",
		Config: "config",
	}
}
