// Package protocol defines the wire-level types shared by the gateway:
// tool call requests and results, content blocks, and the typed error
// envelope every rejection path surfaces as.
package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway rejection. The kind tells the caller
// whether and how the request is worth retrying.
type ErrorKind string

const (
	// KindRateLimit — quota exceeded, back off and retry later.
	KindRateLimit ErrorKind = "rate_limit"
	// KindAuth — missing or invalid credential.
	KindAuth ErrorKind = "auth"
	// KindNotFound — unknown tool or resource name.
	KindNotFound ErrorKind = "not_found"
	// KindValidation — arguments fail the tool's input schema.
	KindValidation ErrorKind = "validation"
	// KindAccessDenied — path/domain/policy violation inside a handler.
	KindAccessDenied ErrorKind = "access_denied"
	// KindDomain — semantically invalid request (division by zero,
	// disallowed SQL shape, ...).
	KindDomain ErrorKind = "domain"
	// KindInternal — unexpected fault; message is opaque to the caller.
	KindInternal ErrorKind = "internal"
)

// Error is the typed envelope for every gateway rejection. Once produced
// it is terminal — no further processing happens on the request.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Errorf builds a typed gateway error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err. Untyped errors map to
// KindInternal.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ToolCallRequest is a single inbound tool invocation.
type ToolCallRequest struct {
	Name      string
	Arguments map[string]any
}

// TextContent is one block of a tool result. The gateway only produces
// text blocks.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolCallResult is the ordered content a successful handler produced.
type ToolCallResult struct {
	Content []TextContent `json:"content"`
}

// Text builds a single-block result, the common case for every tool.
func Text(format string, args ...any) *ToolCallResult {
	return &ToolCallResult{Content: []TextContent{{
		Type: "text",
		Text: fmt.Sprintf(format, args...),
	}}}
}
