// Package predict talks to the remote prediction service: one multipart POST
// per submission, no retries.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// Client submits uploads to a fixed prediction endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// NewClient creates a client for endpoint. An empty endpoint uses the
// default local service address.
func NewClient(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = model.DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Predict sends up and returns the decoded rows. Non-200 responses yield a
// *model.ServerError; anything that prevents a usable response yields a
// *model.ConnectivityError.
func (c *Client) Predict(ctx context.Context, up model.Upload) (model.ResultSet, error) {
	body, contentType, err := encodeUpload(up)
	if err != nil {
		return nil, fmt.Errorf("predict: encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("predict: no response from %s", c.endpoint)
		return nil, &model.ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("predict: response body from %s was cut short", c.endpoint)
		return nil, &model.ConnectivityError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := errorMessage(payload)
		log.Printf("predict: %s answered %d", c.endpoint, resp.StatusCode)
		return nil, &model.ServerError{Status: resp.StatusCode, Message: msg}
	}

	var rows model.ResultSet
	if err := json.Unmarshal(payload, &rows); err != nil {
		log.Printf("predict: %s answered 200 with an unreadable body", c.endpoint)
		return nil, &model.ConnectivityError{Err: fmt.Errorf("decode rows: %w", err)}
	}
	log.Printf("predict: %s answered 200 with %d rows", c.endpoint, len(rows))
	return rows, nil
}

func encodeUpload(up model.Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := up.FileName
	if name == "" {
		name = "upload.csv"
	}
	part, err := w.CreateFormFile(model.FieldFile, name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(model.FieldTimeInterval, up.TimeInterval); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage extracts the best-effort message of a failure body. The
// reference service reports failures under "error", so that field is used
// when "message" is absent.
func errorMessage(payload []byte) string {
	var body struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if msg := model.FormatValue(body.Message); msg != "" {
		return msg
	}
	return model.FormatValue(body.Error)
}
