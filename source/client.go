// Package source fetches job records and time entries from the two remote
// tracking services and normalizes them into worklog values.
package source

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
)

const defaultPageSize = 200

var (
	// ErrFetchFailure marks any failed request against a source.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrAuthRequired marks a source rejecting the configured token.
	ErrAuthRequired = errors.New("authentication required")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	Token      string
	PageSize   int
	UserAgent  string
	HTTPClient httpDoer
}

type restClient struct {
	baseURL    string
	token      string
	pageSize   int
	userAgent  string
	httpClient httpDoer
}

func newRESTClient(cfg ClientConfig) (*restClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &restClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		pageSize:   pageSize,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
	}, nil
}

type page[T any] struct {
	Items  []T `json:"items"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// fetchAll walks offset pagination until the reported total is reached or a
// page comes back empty. Pages are requested one after another.
func fetchAll[T any](ctx context.Context, c *restClient, endpointPath string, query url.Values) ([]T, error) {
	var out []T
	offset := 0
	for {
		pageQuery := url.Values{}
		for key, values := range query {
			pageQuery[key] = values
		}
		pageQuery.Set("offset", strconv.Itoa(offset))
		pageQuery.Set("limit", strconv.Itoa(c.pageSize))

		var current page[T]
		if err := c.doJSON(ctx, http.MethodGet, endpointPath+"?"+pageQuery.Encode(), nil, &current); err != nil {
			return nil, err
		}
		if len(current.Items) == 0 {
			return out, nil
		}

		out = append(out, current.Items...)
		if offset+len(current.Items) >= current.Total {
			return out, nil
		}
		offset += len(current.Items)
	}
}

func (c *restClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w: %w", method, endpointPath, ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("request %s %s failed with status %d: %w", method, endpointPath, resp.StatusCode, ErrAuthRequired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request %s %s failed with status %d: %s: %w",
			method,
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
			ErrFetchFailure,
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w: %w", method, endpointPath, ErrFetchFailure, err)
	}
	return nil
}
