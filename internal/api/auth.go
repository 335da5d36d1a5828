package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the body of a successful /login
type LoginResult struct {
	Status     string `json:"status"`
	Token      string `json:"token"`
	CurrentDir string `json:"currentDir,omitempty"`
}

// Signup registers a new user
func (c *Client) Signup(ctx context.Context, username, password string) error {
	body, err := c.doJSON(ctx, "signup", http.MethodPost, "/signup", credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	return checkStatus("signup", body)
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := c.doJSON(ctx, "login", http.MethodPost, "/login", credentials{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response did not include a token")
	}
	return &result, nil
}
