package kanboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// DefaultUsername is the basic-auth user for application API tokens.
const DefaultUsername = "jsonrpc"

// Doer is the subset of *fasthttp.Client used by Client.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Config describes one JSON-RPC endpoint and its credential.
type Config struct {
	URL      string
	Token    string
	Username string
	Timeout  time.Duration
}

// Client issues JSON-RPC 2.0 calls over HTTP POST. Credentials travel as
// HTTP basic auth: username "jsonrpc" (or the configured user) and the token
// as password.
type Client struct {
	url     string
	auth    string
	timeout time.Duration
	http    Doer
	nextID  atomic.Int64
	logger  *zap.Logger
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	ID      int64       `json:"id"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient builds a client. A nil doer gets a fasthttp.Client tuned to the timeout.
func NewClient(cfg Config, doer Doer, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if doer == nil {
		doer = &fasthttp.Client{
			Name:                "boardwatch",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Token))
	return &Client{
		url:     cfg.URL,
		auth:    "Basic " + creds,
		timeout: cfg.Timeout,
		http:    doer,
		logger:  logger,
	}
}

// Call sends method with params and decodes the result field into out.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return &TransportError{Method: method, Err: err}
	}

	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      c.nextID.Add(1),
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("kanboard %s: marshal request: %w", method, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, c.auth)
	req.SetBody(body)

	started := time.Now()
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return &TransportError{Method: method, Err: err}
	}
	c.logger.Debug("kanboard call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(started)))

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return &ProtocolError{Method: method, StatusCode: status, Reason: "unexpected HTTP status"}
	}

	return decodeResult(method, resp.Body(), out)
}

func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func decodeResult(method string, body []byte, out interface{}) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return &ProtocolError{Method: method, Reason: "malformed JSON", Err: err}
	}

	var remote *rpcError
	if raw, ok := fields["error"]; ok && !isNull(raw) {
		remote = &rpcError{}
		if err := json.Unmarshal(raw, remote); err != nil {
			remote = &rpcError{Message: string(raw)}
		}
	}

	result, ok := fields["result"]
	if !ok {
		reason := "missing result field"
		if remote != nil {
			reason = fmt.Sprintf("missing result field (error %d: %s)", remote.Code, remote.Message)
		}
		return &ProtocolError{Method: method, Reason: reason}
	}
	if remote != nil {
		return &RemoteError{Method: method, Code: remote.Code, Message: remote.Message}
	}
	if isNull(result) || bytes.Equal(bytes.TrimSpace(result), []byte("false")) {
		return &RemoteError{Method: method, Message: fmt.Sprintf("server returned %s", bytes.TrimSpace(result))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		reason := "undecodable result"
		if errors.As(err, &typeErr) {
			reason = fmt.Sprintf("result field %q has type %s", typeErr.Field, typeErr.Value)
		}
		return &ProtocolError{Method: method, Reason: reason, Err: err}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
