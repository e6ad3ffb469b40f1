// Package forge is a minimal client for the hosting platform's release
// registry: check whether a tag already has a release, and create one.
package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrDuplicateTag means a release already exists for the tag. There is
	// no update path; the publisher decides whether this is fatal.
	ErrDuplicateTag = errors.New("release tag already exists")

	// ErrAuth means the token is missing, expired, or lacks the release
	// scope.
	ErrAuth = errors.New("release API authentication failed")
)

// Release is the publication the pipeline cuts once per successful run.
type Release struct {
	Tag   string `json:"tag_name"`
	Title string `json:"name"`
	Notes string `json:"body"`
}

type Client struct {
	baseURL    string
	repo       string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, repo, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("API base URL is required")
	}
	if repo == "" {
		return nil, errors.New("repository is required")
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no token configured", ErrAuth)
	}
	return &Client{
		baseURL:    baseURL,
		repo:       repo,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// TagExists reports whether the platform already has a release for tag.
func (c *Client) TagExists(ctx context.Context, tag string) (bool, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/tags/%s", c.baseURL, c.repo, url.PathEscape(tag))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	default:
		return false, fmt.Errorf("unexpected status %d checking tag %s", resp.StatusCode, tag)
	}
}

// CreateRelease publishes rel. A duplicate tag surfaces as ErrDuplicateTag
// and leaves no partial release behind.
func (c *Client) CreateRelease(ctx context.Context, rel Release) error {
	payload, err := json.Marshal(rel)
	if err != nil {
		return fmt.Errorf("failed to encode release: %w", err)
	}
	endpoint := fmt.Sprintf("%s/repos/%s/releases", c.baseURL, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrDuplicateTag, rel.Tag)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("release creation failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release API request failed: %w", err)
	}
	return resp, nil
}
