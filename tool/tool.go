// Package tool implements the function calling surface exposed to language
// models: declared tools with JSON schema validated arguments, uniform error
// codes and the decide_next_action tool that steers a minion.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/minionmesh/model"
)

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeDecode     = "DECODE_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// Tool is a function a model may call.
//
// Implementations should be safe for concurrent use; a single tool instance is
// shared by every minion driven by the same provider.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to explain when to use the tool.
	Description() string

	// Parameters returns the JSON schema describing accepted arguments.
	Parameters() map[string]any

	// Call validates raw arguments against the schema and executes the tool.
	Call(ctx context.Context, raw json.RawMessage) (any, error)
}

// Definition converts a tool into the declaration sent to models.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
