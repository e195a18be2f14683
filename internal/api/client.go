// Package api is the HTTP adapter for the booking platform's REST API.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medibook-console/internal/exceptions"
)

const (
	DefaultTimeout  = 15 * time.Second
	RequestIDHeader = "X-Request-ID"
)

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

type Options struct {
	BaseURL   string
	Transport http.RoundTripper
	Timeout   time.Duration
	Logger    *zap.Logger
}

func NewClient(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &Client{
		base: strings.TrimRight(o.BaseURL, "/"),
		http: &http.Client{Transport: o.Transport, Timeout: o.Timeout},
		log:  o.Logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	reqID := requestID(req)

	c.log.Debug("Client.do called",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Client.do transport error",
			zap.String("request_id", reqID),
			zap.String("path", path),
			zap.Error(err),
		)
		if errors.Is(err, exceptions.ErrThrottled) {
			return exceptions.ErrThrottled
		}
		return exceptions.Transport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return exceptions.Transport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(data)
		c.log.Info("Client.do server error",
			zap.String("request_id", reqID),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return exceptions.Server(resp.StatusCode, msg)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("api: decode %s %s: %w", method, path, err)
		}
	}

	c.log.Debug("Client.do succeeded",
		zap.String("request_id", reqID),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}

// requestID pins the request id here so log lines and the wire agree.
func requestID(req *http.Request) string {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
		req.Header.Set(RequestIDHeader, id)
	}
	return id
}

// serverMessage pulls the display text out of an error body.
func serverMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
