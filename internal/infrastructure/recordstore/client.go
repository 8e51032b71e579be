package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Record is one loosely-typed row from the legacy record store. Key naming
// is inconsistent across tables and eras; the mapper owns all reading and
// writing of keys.
type Record map[string]any

// Client talks to the legacy record-store HTTP API. The store groups
// records into named tables and filters on exact field equality.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// List fetches records from a table, optionally filtered on field equality.
func (c *Client) List(ctx context.Context, table string, filters map[string]string) ([]Record, error) {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	u := fmt.Sprintf("%s/tables/%s/records", c.baseURL, url.PathEscape(table))
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Records []Record `json:"records"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Upsert writes a record keyed by the store's own ID field.
func (c *Client) Upsert(ctx context.Context, table string, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/tables/%s/records", c.baseURL, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// Append creates a record without overwriting anything.
func (c *Client) Append(ctx context.Context, table string, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/tables/%s/records", c.baseURL, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("record store %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
