// Package gateway talks to the external backends over HTTP/JSON.
//
// There is one Client (base URL + http.Client + logger) shared by five thin
// gateways, one per backend concern:
//
//	AuthGateway            /auth/*
//	DirectoryGateway       /user/get_universities (cached)
//	RecommendationGateway  /user/get_recommendations
//	ReviewGateway          /user/show_information, /user/submit_review
//	AdminGateway           /admin/*
//
// ERROR CONTRACT:
// Every failed call comes back as an *apperror.AppError wrapping
// apperror.ErrGateway (or ErrForbidden for permission failures) whose Message
// is what the view shows. The message is taken from the payload's "error"
// field, else its "message" field, else a fixed per-operation fallback.
//
// Calls are best-effort: no retries, no backoff.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/metrics"
)

// maxBody caps how much of a response we are willing to read.
const maxBody = 4 << 20

// Client is the shared transport for all gateways.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client. A zero timeout leaves requests bounded only
// by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// callError is a failed call before it has been turned into a view message.
// status is 0 when no response arrived at all.
type callError struct {
	status int
	text   string // payload "error", else "message"; may be empty
	err    error
}

func (e *callError) Error() string {
	if e.status == 0 {
		return fmt.Sprintf("gateway: no response: %v", e.err)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.status, e.text)
}

func (e *callError) Unwrap() error { return e.err }

// errorPayload is the failure body every backend uses.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (p errorPayload) text() string {
	if p.Error != "" {
		return p.Error
	}
	return p.Message
}

// call performs one request. in is JSON-encoded as the body when non-nil;
// out receives the decoded 2xx body when non-nil.
//
// gateway and op only label metrics and logs.
func (c *Client) call(ctx context.Context, gateway, op, method, path string, in, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, in, out)

	metrics.GatewayDuration.WithLabelValues(gateway, op).Observe(time.Since(start).Seconds())
	result := "ok"
	var ce *callError
	switch {
	case err == nil:
	case errors.As(err, &ce) && ce.status == 0:
		result = "network"
	default:
		result = "error"
	}
	metrics.GatewayRequests.WithLabelValues(gateway, op, result).Inc()

	if err != nil {
		c.logger.Warn("gateway call failed",
			slog.String("gateway", gateway),
			slog.String("op", op),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gateway: encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("gateway: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &callError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &callError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var p errorPayload
		// A non-JSON error body just means there is no text to show.
		_ = json.Unmarshal(raw, &p)
		return &callError{
			status: resp.StatusCode,
			text:   p.text(),
			err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &callError{status: resp.StatusCode, err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// failure converts a call error into the AppError a view shows, using the
// payload text when present and fallback otherwise.
func failure(err error, fallback string) error {
	var ce *callError
	if errors.As(err, &ce) && ce.text != "" {
		return apperror.Gateway(ce.text)
	}
	return apperror.Gateway(fallback)
}

// statusOf returns the HTTP status of a failed call, or 0 if none arrived.
func statusOf(err error) int {
	var ce *callError
	if errors.As(err, &ce) {
		return ce.status
	}
	return 0
}

// textOf returns the payload text of a failed call.
func textOf(err error) string {
	var ce *callError
	if errors.As(err, &ce) {
		return ce.text
	}
	return ""
}

// boolLiteral renders b the way the admin backend spells booleans.
func boolLiteral(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
