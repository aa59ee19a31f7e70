package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"erp_sales/internal/logging"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindNone means the call succeeded.
	KindNone Kind = iota
	// KindTransport covers unreachable network, non-2xx status and unparsable bodies.
	KindTransport
	// KindBackend means the remote action ran and answered success=false.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	default:
		return "none"
	}
}

// Error is the Go error view of a failed Result.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindTransport
}

// Result is the normalized answer of every remote action.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"-"`

	body []byte
}

// Err returns nil on success, or an *Error carrying the failure kind.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Error}
}

// Decode unmarshals the full response body (action specific fields included) into v.
func (r *Result) Decode(v any) error {
	if len(r.body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.body, v)
}

// Caller is implemented by Client. Components depend on it so tests can swap the backend.
type Caller interface {
	Call(ctx context.Context, action string, payload any) *Result
}

type envelope struct {
	Action  string `json:"accion"`
	Payload any    `json:"payload"`
}

// Client talks to the single backend endpoint.
type Client struct {
	http   *resty.Client
	url    string
	logger *zap.Logger
}

// New creates a Client for url.
func New(url string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:   resty.New().SetTimeout(timeout),
		url:    url,
		logger: logging.OrNop(logger),
	}
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// Call posts {accion, payload} and normalizes the answer. It never returns an error
// value: every failure ends up in the Result.
func (c *Client) Call(ctx context.Context, action string, payload any) *Result {
	if payload == nil {
		payload = map[string]any{}
	}
	log := c.logger.With(zap.String("action", action))
	log.Info("request start")

	body, err := json.Marshal(envelope{Action: action, Payload: payload})
	if err != nil {
		return c.transportFailure(log, fmt.Errorf("encode payload: %w", err))
	}

	// text/plain evita el preflight OPTIONS del endpoint.
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain;charset=utf-8").
		SetBody(body).
		Post(c.url)
	if err != nil {
		return c.transportFailure(log, err)
	}
	if !res.IsSuccess() {
		return c.transportFailure(log, fmt.Errorf("HTTP %d", res.StatusCode()))
	}

	raw := []byte(res.String())
	result := &Result{body: raw}
	if err := json.Unmarshal(raw, result); err != nil {
		return c.transportFailure(log, fmt.Errorf("invalid response body: %w", err))
	}

	if !result.Success {
		result.Kind = KindBackend
		if result.Error == "" {
			result.Error = "the server rejected the request"
		}
		log.Warn("backend error", zap.String("error", result.Error))
		return result
	}

	log.Info("request ok")
	return result
}

func (c *Client) transportFailure(log *zap.Logger, err error) *Result {
	log.Error("connection failure", zap.Error(err))
	return &Result{
		Success: false,
		Kind:    KindTransport,
		Error:   fmt.Sprintf("could not reach the server, check your connection (%s)", err.Error()),
	}
}
