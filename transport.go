package amelie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Transport performs one synchronous round trip of a literal statement. It
// returns the raw payload for the decoder. Failures should be *Error values:
// operational for network trouble, programming for statements the server
// rejected.
type Transport interface {
	Send(ctx context.Context, host, sql string) ([]byte, error)
}

// HTTPTransport POSTs statements as text/plain to the host URL.
type HTTPTransport struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
	Logger *slog.Logger
}

func (me *HTTPTransport) client() *http.Client {
	if me.Client == nil {
		return http.DefaultClient
	}
	return me.Client
}

func (me *HTTPTransport) logger() *slog.Logger {
	if me.Logger == nil {
		return slog.Default()
	}
	return me.Logger
}

func (me *HTTPTransport) Send(ctx context.Context, host, sql string) (ret []byte, err error) {
	logger := me.logger().With("host", host)
	logger.DebugContext(ctx, "sending statement", "bytes", len(sql))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host, strings.NewReader(sql))
	if err != nil {
		err = NewOperationalError("building request", err)
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	resp, err := me.client().Do(req)
	if err != nil {
		logger.DebugContext(ctx, "request failed", "err", err)
		err = NewOperationalError(fmt.Sprintf("sending request to %s", host), err)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = NewOperationalError("reading response", err)
		return
	}
	switch {
	case resp.StatusCode == http.StatusNoContent:
		return
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		ret = body
		return
	}
	err = statusError(resp.StatusCode, body)
	logger.DebugContext(ctx, "statement failed", "status", resp.StatusCode, "err", err)
	return
}

// errorReply is the body the server sends with a failed statement.
type errorReply struct {
	Msg string `json:"msg"`
}

func statusError(code int, body []byte) *Error {
	var reply errorReply
	if json.Unmarshal(body, &reply) == nil && reply.Msg != "" {
		return &Error{Type: ErrorTypeProgramming, Message: reply.Msg, StatusCode: code}
	}
	detail := fmt.Sprintf("server returned %d %s", code, http.StatusText(code))
	if text := string(bytes.TrimSpace(body)); text != "" {
		detail += ": " + text
	}
	t := ErrorTypeProgramming
	if code >= 500 {
		t = ErrorTypeOperational
	}
	return &Error{Type: t, Message: detail, StatusCode: code}
}
