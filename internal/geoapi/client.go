// Package geoapi is the HTTP client for the geo-object backend, which
// persists user-created features per category.
package geoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avetrov/geodesk/internal/core/observability"
	"github.com/avetrov/geodesk/internal/model"
)

const basePath = "v1/geo_objects"

type Client struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL *url.URL
}

func New(logger *slog.Logger, client *http.Client, base string) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		logger:  logger,
		client:  client,
		baseURL: u,
	}, nil
}

// collectionURL yields .../v1/geo_objects/{category}/ — the backend
// routes carry the trailing slash.
func (c *Client) collectionURL(cat model.Category) string {
	return c.baseURL.JoinPath(basePath, string(cat)).String() + "/"
}

func (c *Client) objectURL(cat model.Category, id int64) string {
	return c.baseURL.JoinPath(basePath, string(cat), strconv.FormatInt(id, 10)).String() + "/"
}

// FetchAll lists every persisted object of one category.
func (c *Client) FetchAll(ctx context.Context, cat model.Category) ([]model.GeoObject, error) {
	var out []model.GeoObject
	if err := c.do(ctx, http.MethodGet, c.collectionURL(cat), "fetch_all", cat, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create persists a new object; the body is the attribute payload plus
// the geometry. Returns the object with its server-assigned id.
func (c *Client) Create(ctx context.Context, cat model.Category, body map[string]any) (model.GeoObject, error) {
	var out model.GeoObject
	if err := c.do(ctx, http.MethodPost, c.collectionURL(cat), "create", cat, body, &out); err != nil {
		return model.GeoObject{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, cat model.Category, id int64, body map[string]any) (model.GeoObject, error) {
	var out model.GeoObject
	if err := c.do(ctx, http.MethodPut, c.objectURL(cat, id), "update", cat, body, &out); err != nil {
		return model.GeoObject{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, cat model.Category, id int64) error {
	return c.do(ctx, http.MethodDelete, c.objectURL(cat, id), "delete", cat, nil, nil)
}

func (c *Client) do(ctx context.Context, method, u, op string, cat model.Category, body map[string]any, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("geoapi %s %s: encode body: %w", op, cat, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("geoapi %s %s: build request: %w", op, cat, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	observability.ObserveBackendCall(op, string(cat), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("geoapi %s %s: %w", op, cat, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("geoapi %s %s: backend status %d: %s", op, cat, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	c.logger.Debug("backend call", "op", op, "category", string(cat), "status", resp.StatusCode)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geoapi %s %s: decode response: %w", op, cat, err)
	}
	return nil
}
