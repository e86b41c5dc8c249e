package possync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_sync/utils"
)

// Pairing is the payload of the config endpoint and of its QR code.
type Pairing struct {
	APIKey string `json:"apiKey"`
	APIURL string `json:"apiUrl"`
}

// Client talks to a running sync server the way the mobile companion does.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL string, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("sync server url is empty")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Pair fetches the pairing config and keeps the returned key for later calls.
func (c *Client) Pair(ctx context.Context) (Pairing, error) {
	var p Pairing
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &p); err != nil {
		return Pairing{}, err
	}
	c.apiKey = p.APIKey
	return p, nil
}

func (c *Client) Pull(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, http.MethodGet, "/api/sync", nil, &snap)
	return snap, err
}

// Push sends ops. On a server side failure the partial results are returned
// together with the error.
func (c *Client) Push(ctx context.Context, ops []Operation) ([]OperationResult, error) {
	var resp PushResponse
	err := c.do(ctx, http.MethodPost, "/api/sync", ops, &resp)
	if err != nil {
		return resp.Results, err
	}
	return resp.Results, nil
}

func (c *Client) History(ctx context.Context, limit int) (HistoryResponse, error) {
	path := "/api/sync/history"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var resp HistoryResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// StatusError is a non-2xx answer of the sync server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync server error %d: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &failure)
		msg := failure.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		// push failures still carry per-operation results
		if out != nil && len(raw) > 0 {
			_ = utils.DecodeJSON(raw, out)
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return utils.DecodeJSON(raw, out)
}
