package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// VoiceStatus is the body of /voice-status. Both fields are optional on the wire.
type VoiceStatus struct {
	Text      *string `json:"text,omitempty"`
	Completed bool    `json:"completed,omitempty"`
}

// StartVoice asks the backend to begin a speech recognition session
func (c *Client) StartVoice(ctx context.Context) error {
	return c.sessionCall(ctx, "start voice", "/start-voice")
}

// StopVoice asks the backend to end the speech recognition session
func (c *Client) StopVoice(ctx context.Context) error {
	return c.sessionCall(ctx, "stop voice", "/stop-voice")
}

// sessionCall posts to a session route. Only attempts that never reached
// the backend are retried; a request it may have received is not repeated.
func (c *Client) sessionCall(ctx context.Context, op, path string) error {
	return retryNoResult(ctx, 3, 200*time.Millisecond, func() error {
		_, err := c.do(ctx, op, http.MethodPost, path, nil, "")
		if err != nil && !isDialError(err) {
			return &permanentError{err: err}
		}
		return err
	})
}

// isDialError reports whether the connection was never established
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// GetVoiceStatus fetches the latest recognition status (single attempt)
func (c *Client) GetVoiceStatus(ctx context.Context) (*VoiceStatus, error) {
	body, err := c.do(ctx, "voice status", http.MethodGet, "/voice-status", nil, "")
	if err != nil {
		return nil, err
	}

	var status VoiceStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decoding voice status response: %w", err)
	}
	return &status, nil
}
