// Package client talks to the songbook HTTP API and keeps a local view of the
// catalogue for interactive front ends.
package client

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

	"songbook/models"
)

const defaultTimeout = 10 * time.Second

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("songbook api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ListParams are the query parameters of GET /api/songs. Zero values are omitted
// so the server applies its defaults.
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Artist    string
	Album     string
	Genre     string
	Search    string
}

// Values encodes p as URL query parameters.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			v.Set(key, value)
		}
	}
	set("sortBy", p.SortBy)
	set("sortOrder", p.SortOrder)
	set("artist", p.Artist)
	set("album", p.Album)
	set("genre", p.Genre)
	set("search", p.Search)
	return v
}

// Client handles communication with a songbook server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSongs fetches one page of songs.
func (c *Client) ListSongs(ctx context.Context, p ListParams) (*models.SongsResponse, error) {
	path := "/api/songs"
	if q := p.Values().Encode(); q != "" {
		path += "?" + q
	}
	var out models.SongsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Statistics fetches the catalogue summary.
func (c *Client) Statistics(ctx context.Context) (*models.Statistics, error) {
	var out models.Statistics
	if err := c.do(ctx, http.MethodGet, "/api/songs/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSong fetches a single song by id.
func (c *Client) GetSong(ctx context.Context, id string) (*models.Song, error) {
	var out models.Song
	if err := c.do(ctx, http.MethodGet, songPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSong stores a new song and returns it as persisted.
func (c *Client) CreateSong(ctx context.Context, in models.SongInput) (*models.Song, error) {
	var out models.Song
	if err := c.do(ctx, http.MethodPost, "/api/songs", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSong replaces the fields of an existing song.
func (c *Client) UpdateSong(ctx context.Context, id string, in models.SongInput) (*models.Song, error) {
	var out models.Song
	if err := c.do(ctx, http.MethodPut, songPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSong removes a song and returns the deleted record.
func (c *Client) DeleteSong(ctx context.Context, id string) (*models.Song, error) {
	var out models.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, songPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Song, nil
}

func songPath(id string) string {
	return "/api/songs/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body models.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
		if body.Message == "" {
			body.Message = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{Status: resp.StatusCode, Message: body.Message}
}
