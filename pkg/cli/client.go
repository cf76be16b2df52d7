package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sqlpp/internal/api"
	"sqlpp/internal/domain"
)

// Client calls a sqlpp server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a failed call whose body did not map to a domain error.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, e.Message)
}

// Format calls POST /v1/format.
func (c *Client) Format(ctx context.Context, req domain.FormatRequest) (*domain.FormatResponse, error) {
	var resp domain.FormatResponse
	if err := c.post(ctx, "/v1/format", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Mapper calls POST /v1/mapper.
func (c *Client) Mapper(ctx context.Context, req domain.MapperRequest) (*domain.MapperResponse, error) {
	var resp domain.MapperResponse
	if err := c.post(ctx, "/v1/mapper", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError turns an error body back into the domain error the server
// reported, so a remote failure exits the same way a local one does.
func decodeAPIError(status int, data []byte) error {
	var e api.ErrorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Kind == "" {
		return &APIError{HTTPStatus: status, Message: string(bytes.TrimSpace(data))}
	}
	switch e.Kind {
	case "parse_error":
		return &domain.ParseError{Line: e.Line, Column: e.Column, Message: trimPrefix(e.Message, e.Line, e.Column)}
	case "unsupported_construct":
		return &domain.UnsupportedConstructError{Construct: e.Construct}
	case "validation_error":
		return &domain.ValidationError{Message: e.Message}
	default:
		return &APIError{HTTPStatus: status, Message: e.Message}
	}
}

// trimPrefix strips the position prefix ParseError.Error adds, so the
// rebuilt error does not repeat it.
func trimPrefix(msg string, line, column int) string {
	prefix := "parse error: "
	if line != 0 {
		prefix = fmt.Sprintf("parse error at line %d, column %d: ", line, column)
	}
	return strings.TrimPrefix(msg, prefix)
}
