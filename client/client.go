// Package client submits drafts to a schemagen server and decodes the
// results for display.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"schemagen/internal/domain/entity"
	"schemagen/internal/domain/erd"
)

// DefaultTimeout is generous compared to the server's fixed generation delay.
const DefaultTimeout = 30 * time.Second

const generatePath = "/api/generate-schema"

var (
	ErrEmptyInput         = errors.New("input is empty")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// TransportError wraps network, status and decoding failures.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Draft is the form state of a submission.
type Draft struct {
	Kind      entity.InputKind
	Text      string
	DesignURL string
	Options   entity.GenerationOptions
}

// Content returns the design URL for figma drafts and the text buffer for
// every other kind.
func (d Draft) Content() string {
	if d.Kind == entity.InputKindDesignRef {
		return d.DesignURL
	}
	return d.Text
}

func (d Draft) Empty() bool {
	return d.Content() == ""
}

func (d Draft) Request() entity.GenerationRequest {
	return entity.GenerationRequest{
		InputCode: d.Content(),
		InputType: d.Kind,
		Options:   d.Options,
	}
}

// Result is a decoded generation response. Diagram holds diagram source
// ready for a renderer, or "" when none was requested.
type Result struct {
	Schema      string
	APIRoutes   string
	Diagram     string
	Explanation string
}

type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	inFlight atomic.Bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanSubmit reports whether the draft may be submitted right now.
func (c *Client) CanSubmit(d Draft) bool {
	return !d.Empty() && !c.inFlight.Load()
}

func (c *Client) Busy() bool {
	return c.inFlight.Load()
}

// Submit sends the draft. Only one submission may be outstanding; there is
// no retry. Transport failures are logged and returned as *TransportError.
func (c *Client) Submit(ctx context.Context, d Draft) (*Result, error) {
	if d.Empty() {
		return nil, ErrEmptyInput
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	resp, err := c.post(ctx, d.Request())
	if err != nil {
		c.logger.Error("generate schema failed", "err", err)
		return nil, err
	}

	diagram, err := erd.DecodeDataURI(resp.ERDImageURL)
	if err != nil {
		terr := &TransportError{Op: "decode diagram", Err: err}
		c.logger.Error("generate schema failed", "err", terr)
		return nil, terr
	}

	return &Result{
		Schema:      resp.Schema,
		APIRoutes:   resp.APIRoutes,
		Diagram:     diagram,
		Explanation: resp.Explanation,
	}, nil
}

func (c *Client) post(ctx context.Context, req entity.GenerationRequest) (*entity.GenerationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "send request", Err: err}
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "generate", StatusCode: httpResp.StatusCode, Err: errors.New(errorMessage(httpResp.Body))}
	}

	var out entity.GenerationResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return &out, nil
}

func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "unexpected response"
}

// LoadFile reads a user-selected file into a text buffer.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
