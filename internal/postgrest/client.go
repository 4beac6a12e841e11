// Package postgrest talks to a hosted PostgREST data API (Supabase style):
// rows are read with filtered GETs and written with POST + return=representation.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

const uniqueViolation = "23505"

type Client struct {
	baseURL string
	apiKey  string
	table   string
	http    *http.Client
}

var _ store.Gateway = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New builds a client for baseURL, the REST root (for Supabase
// "https://<project>.supabase.co/rest/v1").
func New(baseURL, apiKey, table string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("postgrest: empty base url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("postgrest: base url: %w", err)
	}
	if table == "" {
		table = "teams"
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		table:   table,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *apiError) Error() string { return e.Message }

// IsTeamNameTaken asks for rows whose name matches case-insensitively and
// then compares folded names, so LIKE wildcards in a name cannot widen the match.
func (c *Client) IsTeamNameTaken(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	q := url.Values{}
	q.Set("select", "team_name")
	q.Set("team_name", "ilike."+escapeLike(name))
	q.Set("limit", "50")

	req, err := c.newRequest(ctx, http.MethodGet, "/"+c.table+"?"+q.Encode(), nil)
	if err != nil {
		return false, store.Wrap("query", err)
	}
	var rows []struct {
		TeamName string `json:"team_name"`
	}
	if err := c.do(req, &rows); err != nil {
		return false, store.Wrap("query", err)
	}
	want := store.NameKey(name)
	for _, r := range rows {
		if store.NameKey(r.TeamName) == want {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) Insert(ctx context.Context, reg models.Registration) (string, error) {
	reg.ID = ""
	reg.CreatedAt = time.Time{}
	reg.PaymentStatus = models.PaymentPending
	reg.IsPresent = false
	if reg.Members == nil {
		reg.Members = []models.Member{}
	}
	body, err := json.Marshal(reg)
	if err != nil {
		return "", store.Wrap("insert", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/"+c.table, bytes.NewReader(body))
	if err != nil {
		return "", store.Wrap("insert", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	var created struct {
		ID json.RawMessage `json:"id"`
	}
	if err := c.do(req, &created); err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.Code == uniqueViolation {
			return "", store.Wrap("insert", store.ErrTeamNameTaken)
		}
		return "", store.Wrap("insert", err)
	}
	id := strings.Trim(string(created.ID), `"`)
	if id == "" || id == "null" {
		return "", store.Wrap("insert", errors.New("insert returned no id"))
	}
	return id, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Message != "" {
			return &ae
		}
		return fmt.Errorf("%s %s: %s", req.Method, resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards. "*" is left as is; PostgREST reads it as
// "%" and IsTeamNameTaken compares the folded names afterwards.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
