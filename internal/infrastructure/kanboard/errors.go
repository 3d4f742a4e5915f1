package kanboard

import (
	"errors"
	"fmt"
)

// TransportError reports a network level failure: dial, write, read or timeout.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("kanboard %s: transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a response that is not a usable JSON-RPC reply:
// non-2xx status, malformed JSON, a missing result field or a result that
// does not decode into the expected shape.
type ProtocolError struct {
	Method     string
	StatusCode int
	Reason     string
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("kanboard %s: protocol: %s", e.Method, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// RemoteError reports a reply that carries a result but is semantically a
// failure: a JSON-RPC error object next to the result, or a false/null result.
type RemoteError struct {
	Method  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("kanboard %s: remote error %d: %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("kanboard %s: remote error: %s", e.Method, e.Message)
}

// MethodOf extracts the JSON-RPC method from any client error, or "" when err
// did not come from the client.
func MethodOf(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Method
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Method
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Method
	}
	return ""
}

// Kind names the error class for logs and status reports.
func Kind(err error) string {
	var te *TransportError
	var pe *ProtocolError
	var re *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &pe):
		return "protocol"
	case errors.As(err, &re):
		return "remote"
	default:
		return "unknown"
	}
}
