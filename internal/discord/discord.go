// Package discord talks to the companion bot relay that posts study guides
// into a Discord channel on the app's behalf.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client posts files to the relay service. The relay holds the long-lived
// gateway connection; this client only speaks HTTP to it.
type Client struct {
	Endpoint  string
	ChannelID string
	Token     string

	http *http.Client
}

// NewClient returns a client for the relay at endpoint. channelID and token
// are forwarded with every send so the relay stays stateless.
func NewClient(endpoint, channelID, token string) *Client {
	return &Client{
		Endpoint:  endpoint,
		ChannelID: channelID,
		Token:     token,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether the client has enough settings to send.
func (c *Client) Configured() bool {
	return c != nil && c.Endpoint != "" && c.ChannelID != "" && c.Token != ""
}

// SendPDF uploads the file at path to the relay along with a message. The
// relay responds 200 on success; anything else is surfaced with the relay's
// body text.
func (c *Client) SendPDF(ctx context.Context, path, message string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening pdf for send: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("channel_id", c.ChannelID); err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	if err := mw.WriteField("message", message); err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	if err := mw.WriteField("bot_token", c.Token); err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading pdf for send: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/send_pdf", &body)
	if err != nil {
		return fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending pdf to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("relay rejected pdf: status %d: %s", resp.StatusCode, text)
	}
	return nil
}

// Status probes the relay's health endpoint and returns its reported state.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("building status request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reaching relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay unhealthy: status %d", resp.StatusCode)
	}

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding relay status: %w", err)
	}
	return status, nil
}
