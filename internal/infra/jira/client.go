// Package jira fetches issue pages from the Jira search REST API.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// Ensure Client implements domain.IssueSource.
var _ domain.IssueSource = (*Client)(nil)

// maxErrorBody bounds the response body kept in an HTTPError.
const maxErrorBody = 512

// Client queries <base_url>?jql=..&startAt=..&maxResults=..&fields=..
type Client struct {
	http      *http.Client
	clock     domain.Clock
	jql       *template.Template
	baseURL   string
	fields    string
	userAgent string
}

// NewClient creates a Client from the source configuration.
func NewClient(cfg domain.SourceConfig) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	tmpl, err := template.New("jql").Option("missingkey=error").Parse(cfg.JQL)
	if err != nil {
		return nil, fmt.Errorf("parse jql template: %w", err)
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		clock:     domain.RealClock{},
		jql:       tmpl,
		baseURL:   cfg.BaseURL,
		fields:    cfg.Fields,
		userAgent: cfg.UserAgent,
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithClock replaces the clock used to interpret Retry-After dates.
func (c *Client) WithClock(clock domain.Clock) *Client {
	c.clock = clock
	return c
}

// searchResponse is the subset of the search response we rely on.
type searchResponse struct {
	Issues []json.RawMessage `json:"issues"`
	Total  int               `json:"total"`
}

// FetchPage requests one page of issues.
func (c *Client) FetchPage(ctx context.Context, req domain.PageRequest) domain.FetchOutcome {
	u, err := c.pageURL(req)
	if err != nil {
		return domain.Fatal(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Fatal(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Fatal(ctxErr)
		}
		return domain.Fatal(fmt.Errorf("%w: %w", domain.ErrTransport, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return domain.RateLimited(parseRetryAfter(resp.Header.Get("Retry-After"), c.clock.Now()))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Fatal(&domain.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		})
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Fatal(ctxErr)
		}
		return domain.Fatal(fmt.Errorf("%w: read body: %w", domain.ErrTransport, err))
	}

	var body searchResponse
	if err := json.Unmarshal(content, &body); err != nil {
		return domain.Fatal(fmt.Errorf("%w: %w", domain.ErrMalformedPage, err))
	}

	issues := make([]json.RawMessage, 0, len(body.Issues))
	for _, issue := range body.Issues {
		var buf bytes.Buffer
		if err := json.Compact(&buf, issue); err != nil {
			return domain.Fatal(fmt.Errorf("%w: %w", domain.ErrMalformedPage, err))
		}
		issues = append(issues, buf.Bytes())
	}

	return domain.Success(&domain.Page{Issues: issues, Total: body.Total})
}

func (c *Client) pageURL(req domain.PageRequest) (string, error) {
	var jql strings.Builder
	if err := c.jql.Execute(&jql, struct{ Collection string }{req.Collection}); err != nil {
		return "", fmt.Errorf("render jql: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("jql", jql.String())
	q.Set("startAt", strconv.Itoa(req.StartAt))
	q.Set("maxResults", strconv.Itoa(req.MaxResults))
	if c.fields != "" {
		q.Set("fields", c.fields)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Zero means no usable hint.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
