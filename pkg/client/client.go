package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/uno-go/pkg/server"
)

// ErrServerRejected carries the server's human-readable refusal reason.
type ErrServerRejected struct {
	Reason string
}

func (e *ErrServerRejected) Error() string { return e.Reason }

// Client talks the JSON polling protocol. Safe for concurrent use; all
// state lives on the server side or in the identity cache.
type Client struct {
	serverURL string
	http      *http.Client
	log       slog.Logger
}

// Config holds configuration for a Client.
type Config struct {
	// ServerURL is the base URL of the game server, no trailing slash.
	ServerURL string

	// Timeout bounds each request (default 10s).
	Timeout time.Duration

	Log slog.Logger
}

// NewClient creates a client against the given server.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	return &Client{
		serverURL: cfg.ServerURL,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       cfg.Log,
	}
}

// CreateRoom asks the server for a fresh room and returns its id.
func (c *Client) CreateRoom(ctx context.Context, count int) (string, error) {
	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
		ID     string `json:"id"`
	}
	if err := c.post(ctx, "/create", map[string]int{"count": count}, &resp); err != nil {
		return "", err
	}
	if resp.Status != "success" {
		return "", &ErrServerRejected{Reason: resp.Reason}
	}
	return resp.ID, nil
}

// JoinRoom joins a room and returns the minted identity token. The
// caller should persist it so an interrupted session can resume.
func (c *Client) JoinRoom(ctx context.Context, roomID, username string) (string, error) {
	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
		UID    string `json:"uid"`
	}
	req := map[string]string{"id": roomID, "username": username}
	if err := c.post(ctx, "/join", req, &resp); err != nil {
		return "", err
	}
	if resp.Status != "success" {
		return "", &ErrServerRejected{Reason: resp.Reason}
	}
	return resp.UID, nil
}

// Play submits a card code, the pass marker SK included. Color is only
// meaningful with a wild; the server picks one if it is left empty.
func (c *Client) Play(ctx context.Context, uid, card, color string) error {
	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	req := map[string]string{"uid": uid, "card": card}
	if color != "" {
		req["color"] = color
	}
	if err := c.post(ctx, "/play", req, &resp); err != nil {
		return err
	}
	if resp.Status != "success" {
		return &ErrServerRejected{Reason: resp.Reason}
	}
	return nil
}

// Status polls the caller's view of their room.
func (c *Client) Status(ctx context.Context, uid string) (*server.GameSnapshot, error) {
	var resp struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
		server.GameSnapshot
	}
	if err := c.post(ctx, "/status", map[string]string{"uid": uid}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, &ErrServerRejected{Reason: resp.Reason}
	}
	snap := resp.GameSnapshot
	return &snap, nil
}

// CheckVersion reports whether this client meets the server's minimum
// version, along with the minimum it advertises.
func (c *Client) CheckVersion(ctx context.Context, version string) (bool, string, error) {
	var resp struct {
		MinClientVersion string `json:"min_client_version"`
	}
	if err := c.post(ctx, "/status", map[string]string{"uid": "version_check"}, &resp); err != nil {
		return false, "", err
	}
	return version >= resp.MinClientVersion, resp.MinClientVersion, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serverURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debugf("POST %s", path)
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Rejected returns the refusal reason if err came from the server, or
// the empty string for transport failures.
func Rejected(err error) string {
	var rej *ErrServerRejected
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}
