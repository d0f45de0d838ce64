package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/minionmesh/internal/util"
	"github.com/hupe1980/minionmesh/logging"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Options configure a FunctionTool.
type Options struct {
	Logger logging.Logger
}

// FunctionTool exposes a plain Go function as a tool.
//
// Arguments are decoded with json.Number precision, validated against the
// compiled schema and only then handed to fn. Errors are normalized:
//
//	malformed JSON       -> *ToolError{Code: DECODE_ERROR}
//	schema mismatch      -> *ToolError{Code: VALIDATION_ERROR}
//	fn returned an error -> *ToolError{Code: EXECUTION_ERROR} (a *ToolError from fn is forwarded)
//
// A FunctionTool has no mutable state after construction and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	schema      *jsonschema.Schema
	fn          func(ctx context.Context, args map[string]any) (any, error)
	logger      logging.Logger
}

// NewFunctionTool compiles parameters and constructs the tool.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *Options),
) (*FunctionTool, error) {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, optFn := range optFns {
		optFn(&opts)
	}

	raw, err := json.Marshal(parameters)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}

	schema, err := jsonschema.CompileString(name+".schema.json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}

	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		schema:      schema,
		fn:          fn,
		logger:      opts.Logger,
	}, nil
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using util.CreateSchema.
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
	optFns ...func(o *Options),
) (*FunctionTool, error) {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, optFns...)
}

// Name returns the unique tool name used in function call declarations.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Validate decodes raw and checks it against the schema.
func (t *FunctionTool) Validate(raw json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("decode arguments: %v", err),
			Code:    CodeDecode,
		}
	}

	if err := t.schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		details := any(err.Error())
		if errors.As(err, &verr) {
			details = verr.BasicOutput()
		}

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: details,
		}
	}

	args, ok := doc.(map[string]any)
	if !ok {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("arguments must be an object, got %T", doc),
			Code:    CodeValidation,
		}
	}

	return args, nil
}

// Call validates raw then invokes the wrapped function.
func (t *FunctionTool) Call(ctx context.Context, raw json.RawMessage) (any, error) {
	start := time.Now()

	t.logger.Debug("tool.call.start", "tool", t.name)

	args, err := t.Validate(raw)
	if err != nil {
		t.logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		return nil, err
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			t.logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}

		t.logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	t.logger.Debug("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
