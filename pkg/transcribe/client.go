package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/fretline/fretline/pkg/cache"
	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/observability"
	"github.com/fretline/fretline/pkg/tab"
)

// defaultTimeout bounds a single transcription request. Audio models are
// slow; a full song can take tens of seconds.
const defaultTimeout = 120 * time.Second

// ClientOption configures a remote transcription client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// Client sends audio to a remote transcription service and decodes the note
// list it returns. Transient failures (connection errors, 5xx responses)
// are retried with exponential backoff.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the transcription service at endpoint,
// e.g. "http://localhost:9000/transcribe".
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transcribeResponse is the service's wire format. The note objects share
// their field names with tab.Note's JSON form.
type transcribeResponse struct {
	Notes []tab.Note `json:"notes"`
}

// Transcribe uploads the audio bytes and returns the transcribed notes.
// A service response with an empty note list is a valid result and is
// returned as-is.
func (c *Client) Transcribe(ctx context.Context, data []byte, filename string) ([]tab.Note, error) {
	var notes []tab.Note
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		notes, err = c.post(ctx, data, filename)
		return err
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) post(ctx context.Context, data []byte, filename string) ([]tab.Note, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build upload form")
	}
	if _, err := part.Write(data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build upload form")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "transcription service timed out")
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "reach transcription service"))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(errors.New(errors.ErrCodeNetwork,
			"transcription service returned status %d", resp.StatusCode))
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.ErrCodeTranscribe,
			"transcription rejected (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTranscribe, err, "decode service response")
	}
	return out.Notes, nil
}
