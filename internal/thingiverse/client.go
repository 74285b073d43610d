package thingiverse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API defines the operations the browse layer needs from the Thingiverse
// client. This interface is implemented by *Client and can be used for
// testing.
type API interface {
	Things(ctx context.Context, query string, page int) ([]Thing, error)
	Thing(ctx context.Context, thingID int) (Thing, error)
	ThingFiles(ctx context.Context, thingID int) ([]ThingFile, error)
	Collections(ctx context.Context, user string) ([]Collection, error)
	Download(ctx context.Context, fileID int) ([]byte, error)
	Message(ctx context.Context) (Message, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the Thingiverse REST API.
type Client struct {
	baseURL    *url.URL
	messageURL *url.URL
	http       *http.Client
	token      string
	userAgent  string
	pageSize   int
}

const (
	defaultRootURL    = "https://api.thingiverse.com"
	defaultMessageURL = defaultRootURL + "/message"
	defaultUserAgent  = "thingscout/0.1"
	defaultPageSize   = 20
	requestTimeout    = 30 * time.Second
)

// Options configure a Client. Zero values fall back to defaults; Token is
// required for authenticated calls and is attached as a bearer header.
type Options struct {
	RootURL    string
	MessageURL string
	Token      string
	PageSize   int
}

// NewClient builds a Client from the provided options.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.RootURL)
	if err != nil {
		return nil, err
	}
	messageURL := strings.TrimSpace(opts.MessageURL)
	if messageURL == "" {
		messageURL = defaultMessageURL
	}
	msg, err := url.Parse(messageURL)
	if err != nil {
		return nil, fmt.Errorf("parse message_url %q: %w", opts.MessageURL, err)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		baseURL:    base,
		messageURL: msg,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		token:     opts.Token,
		userAgent: defaultUserAgent,
		pageSize:  pageSize,
	}, nil
}

// PageSize reports the number of results requested per page.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Things retrieves one page of a listing query built by the helpers in
// query.go.
func (c *Client) Things(ctx context.Context, query string, page int) ([]Thing, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("per_page", strconv.Itoa(c.pageSize))
	values.Set("page", strconv.Itoa(page))
	rel := &url.URL{Path: query, RawQuery: values.Encode()}
	var payload []Thing
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Thing retrieves the details of a single thing.
func (c *Client) Thing(ctx context.Context, thingID int) (Thing, error) {
	if c == nil {
		return Thing{}, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: fmt.Sprintf("things/%d", thingID)}
	var payload Thing
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return Thing{}, err
	}
	return payload, nil
}

// ThingFiles retrieves the file listing of a single thing.
func (c *Client) ThingFiles(ctx context.Context, thingID int) ([]ThingFile, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: fmt.Sprintf("things/%d/files", thingID)}
	var payload []ThingFile
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Collections retrieves a user's collections.
func (c *Client) Collections(ctx context.Context, user string) ([]Collection, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: CollectionsQuery(user)}
	var payload []Collection
	if err := c.getJSON(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Download retrieves the raw bytes of a thing file. The body is passed
// through untouched; no JSON parsing happens on this endpoint.
func (c *Client) Download(ctx context.Context, fileID int) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: fmt.Sprintf("files/%d/download", fileID)}
	return c.get(ctx, c.baseURL.ResolveReference(rel))
}

// Message retrieves the dynamic announcement banner.
func (c *Client) Message(ctx context.Context) (Message, error) {
	if c == nil {
		return Message{}, fmt.Errorf("client is nil")
	}
	body, err := c.get(ctx, c.messageURL)
	if err != nil {
		return Message{}, err
	}
	var payload Message
	if err := json.Unmarshal(body, &payload); err != nil {
		return Message{}, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, rel *url.URL, dest any) error {
	body, err := c.get(ctx, c.baseURL.ResolveReference(rel))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, reqURL *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func parseBaseURL(root string) (*url.URL, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		trimmed = defaultRootURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse root_url %q: %w", root, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
