package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"securelink/internal/domain"
)

// HTTP talks to a relay server over JSON/HTTP.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the relay at base.
func NewHTTP(base string) *HTTP {
	return &HTTP{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

type registerRequest struct {
	Username  domain.Username `json:"username"`
	PublicKey string          `json:"publicKey"`
}

type publicKeyResponse struct {
	Username  domain.Username `json:"username"`
	PublicKey string          `json:"publicKey"`
}

type ackRequest struct {
	Count int `json:"count"`
}

// PublishPublicKey registers username's base64 identity key with the directory.
func (c *HTTP) PublishPublicKey(ctx context.Context, username domain.Username, publicKey string) error {
	return c.post(ctx, "/register", registerRequest{Username: username, PublicKey: publicKey}, nil)
}

// GetPublicKey returns username's base64 identity key, or an error wrapping
// domain.ErrNotFound.
func (c *HTTP) GetPublicKey(ctx context.Context, username domain.Username) (string, error) {
	var out publicKeyResponse
	if err := c.getJSON(ctx, "/public-key/"+url.PathEscape(string(username)), &out); err != nil {
		return "", err
	}
	return out.PublicKey, nil
}

// SendFrame queues f for f.To.
func (c *HTTP) SendFrame(ctx context.Context, f domain.Frame) error {
	return c.post(ctx, "/msg/"+url.PathEscape(string(f.To)), f, nil)
}

// FetchFrames returns up to limit queued frames for username without removing
// them. A limit of zero or less fetches everything.
func (c *HTTP) FetchFrames(ctx context.Context, username domain.Username, limit int) ([]domain.Frame, error) {
	path := "/msg/" + url.PathEscape(string(username))
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var frames []domain.Frame
	if err := c.getJSON(ctx, path, &frames); err != nil {
		return nil, err
	}
	return frames, nil
}

// AckFrames drops the first count queued frames for username.
func (c *HTTP) AckFrames(ctx context.Context, username domain.Username, count int) error {
	return c.post(ctx, "/msg/"+url.PathEscape(string(username))+"/ack", ackRequest{Count: count}, nil)
}

// Health checks that the relay is reachable.
func (c *HTTP) Health(ctx context.Context) error {
	var out map[string]string
	return c.getJSON(ctx, "/health", &out)
}

func (c *HTTP) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTP) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("relay %s %s: %w", req.Method, req.URL.Path, domain.ErrNotFound)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.RelayClient = (*HTTP)(nil)
