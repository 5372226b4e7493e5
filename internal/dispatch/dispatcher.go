// Package dispatch is the policy-enforcement gateway. Every tool call
// passes through Handle, which applies rate limiting, authentication,
// registry lookup, and schema validation — in that order — before the
// handler runs, and normalizes every failure into a typed error.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/toolgate-ai/toolgate/internal/auth"
	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/ratelimit"
	"github.com/toolgate-ai/toolgate/internal/registry"
	"github.com/toolgate-ai/toolgate/internal/storage"
)

// DefaultClientID is the identity used when the transport supplies none.
// The reference system never distinguishes callers; the parameter exists
// so real per-caller identification can be plugged in later.
const DefaultClientID = "default"

// Dispatcher orchestrates the checks around every tool invocation.
type Dispatcher struct {
	limiter *ratelimit.Limiter
	auth    auth.Authenticator
	tools   *registry.ToolRegistry
	writer  storage.EventWriter
	logger  *zap.Logger
}

// NewDispatcher wires the gateway. All dependencies are required; pass a
// LogWriter when no event sink is configured.
func NewDispatcher(
	limiter *ratelimit.Limiter,
	authenticator auth.Authenticator,
	tools *registry.ToolRegistry,
	writer storage.EventWriter,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		limiter: limiter,
		auth:    authenticator,
		tools:   tools,
		writer:  writer,
		logger:  logger,
	}
}

// Handle runs one tool call through the fixed check sequence:
//
//  1. rate limit  2. auth  3. tool lookup  4. argument validation
//  5. handler  6. wrap success  7. normalize failure
//
// Cheap checks run before expensive ones; nothing executes handler logic
// until 1-4 have passed. Every rejection is a typed *protocol.Error — a
// bad request never crashes the process.
func (d *Dispatcher) Handle(ctx context.Context, req protocol.ToolCallRequest, clientID, credential string) (*protocol.ToolCallResult, error) {
	start := time.Now()
	requestID := uuid.New().String()
	if clientID == "" {
		clientID = DefaultClientID
	}

	result, err := d.process(ctx, req, clientID, credential)
	latencyMs := float32(float64(time.Since(start)) / float64(time.Millisecond))

	d.record(req, clientID, requestID, err, latencyMs)

	if err != nil {
		d.logger.Info("tool call rejected",
			zap.String("request_id", requestID),
			zap.String("tool_name", req.Name),
			zap.String("error_kind", string(protocol.KindOf(err))),
			zap.Float32("latency_ms", latencyMs),
		)
		return nil, err
	}

	d.logger.Debug("tool call completed",
		zap.String("request_id", requestID),
		zap.String("tool_name", req.Name),
		zap.Float32("latency_ms", latencyMs),
	)
	return result, nil
}

func (d *Dispatcher) process(ctx context.Context, req protocol.ToolCallRequest, clientID, credential string) (*protocol.ToolCallResult, error) {
	// 1. Rate limit — denied attempts are not recorded against the window.
	if !d.limiter.Admit(clientID) {
		return nil, protocol.Errorf(protocol.KindRateLimit, "rate limit exceeded, please try again later")
	}

	// 2. Authenticate.
	if err := d.auth.Verify(ctx, credential); err != nil {
		return nil, err
	}

	// 3. Tool lookup.
	desc, err := d.tools.Lookup(req.Name)
	if err != nil {
		return nil, err
	}

	// 4. Argument validation against the tool's input schema.
	if err := desc.ValidateArgs(req.Arguments); err != nil {
		return nil, validationError(err)
	}

	// 5. Handler invocation.
	result, err := d.invoke(ctx, desc, req.Arguments)
	if err != nil {
		// 7. Typed domain errors propagate unchanged; anything else is
		// normalized to an opaque internal error.
		var ge *protocol.Error
		if errors.As(err, &ge) {
			return nil, ge
		}
		d.logger.Error("tool handler failed",
			zap.String("tool_name", req.Name),
			zap.Error(err),
		)
		return nil, protocol.Errorf(protocol.KindInternal, "tool execution failed")
	}

	// 6. Pass-through success.
	return result, nil
}

// invoke runs the handler, converting a panic into an error so a single
// bad request cannot take down the process.
func (d *Dispatcher) invoke(ctx context.Context, desc *registry.ToolDescriptor, args map[string]any) (result *protocol.ToolCallResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panic",
				zap.String("tool_name", desc.Name),
				zap.Any("panic", r),
			)
			result = nil
			err = protocol.Errorf(protocol.KindInternal, "tool execution failed")
		}
	}()
	return desc.Handler(ctx, args)
}

// validationError wraps a schema failure, keeping the validator's
// message — it names the offending field and the expectation.
func validationError(err error) error {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return protocol.Errorf(protocol.KindValidation, "invalid arguments: %v", ve)
	}
	return protocol.Errorf(protocol.KindValidation, "invalid arguments: %v", err)
}

func (d *Dispatcher) record(req protocol.ToolCallRequest, clientID, requestID string, err error, latencyMs float32) {
	argsJSON, marshalErr := json.Marshal(req.Arguments)
	if marshalErr != nil {
		argsJSON = []byte("{}")
	}

	event := &storage.ToolCallEvent{
		RequestID:     requestID,
		ClientID:      clientID,
		Timestamp:     time.Now(),
		ToolName:      req.Name,
		ArgumentsJSON: string(argsJSON),
		Outcome:       "ok",
		LatencyMs:     latencyMs,
	}
	if err != nil {
		event.Outcome = "error"
		event.ErrorKind = string(protocol.KindOf(err))
		event.Message = err.Error()
	}

	d.writer.Write(event)
}
