package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"veriguard/internal/logger"
)

const (
	DefaultEndpoint = "https://veriguard.onrender.com/process"
	maxErrorBody    = 4 << 10
)

var (
	ErrNetwork = errors.New("network error")
	ErrTimeout = errors.New("request timed out")
)

// StatusError is a non-2xx reply. Message is the service's error text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error! status: %d, message: %s", e.Code, e.Message)
}

type Client struct {
	endpoint string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(endpoint string, httpClient *http.Client, log *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{endpoint: endpoint, http: httpClient, log: logger.OrDiscard(log)}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Analyze posts p and decodes the reply. Deadline expiry is reported as
// ErrTimeout; cancellation and transport failures as ErrNetwork.
func (c *Client) Analyze(ctx context.Context, p Payload) (Reply, error) {
	body, contentType, err := encodeMultipart(p)
	if err != nil {
		return Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("posting analysis request", "endpoint", c.endpoint, "channel", p.Channel)
	resp, err := c.http.Do(req)
	if err != nil {
		return Reply{}, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Code: resp.StatusCode, Message: errorMessage(raw)}
		c.log.Warn("analysis request rejected", "status", resp.StatusCode, "message", serr.Message)
		return Reply{}, serr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, classifyTransport(ctx, err)
	}
	reply, err := decodeReply(data)
	if err != nil {
		return Reply{}, err
	}
	c.log.Debug("analysis reply received", "chat_id", reply.ChatID, "summary_bytes", len(reply.Summary))
	return reply, nil
}

func encodeMultipart(p Payload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	var err error
	switch p.Channel {
	case ChannelFile:
		if p.File == nil {
			return nil, "", ErrEmptySubmission
		}
		var part io.Writer
		part, err = w.CreateFormFile("file", p.File.Name)
		if err == nil {
			_, err = part.Write(p.File.Content)
		}
	case ChannelImageURL:
		err = w.WriteField("image_url", p.ImageURL)
	case ChannelText:
		err = w.WriteField("text", p.Text)
	default:
		return nil, "", ErrEmptySubmission
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s field: %w", p.Channel, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func classifyTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

func errorMessage(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return text
}
