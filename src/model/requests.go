package cowin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.76 Safari/537.36 Mozilla/5.0 (X11; Linux x86_64) Chrome/44.0.2403.157 Thunderstorm/1.0 (Linux)"
	timeout   = 3 * time.Second
)

// Client is a thin JSON-over-HTTP client bound to one base URL.
type Client struct {
	baseURL    *url.URL
	HTTPClient *http.Client
	userAgent  string
}

func NewClient(client *http.Client, baseURL string) (*Client, error) {
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
		}
	}

	urlValue, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	return &Client{
		baseURL:    urlValue,
		HTTPClient: client,
		userAgent:  userAgent,
	}, nil
}

// Resolve returns the absolute URL for path and query relative to the base URL.
func (c *Client) Resolve(path string, query url.Values) *url.URL {
	ref := &url.URL{Path: path, RawQuery: query.Encode()}
	return c.baseURL.ResolveReference(ref)
}

func (c *Client) NewRequest(ctx context.Context, method string, u *url.URL, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("invalid http request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do sends the request and returns the raw body of a 2xx response.
// Any other status is reported as a *StatusError.
func (c *Client) Do(request *http.Request) ([]byte, error) {
	response, err := c.HTTPClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("unable to query %s: %w", request.URL.Host, err)
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{Code: response.StatusCode, URL: request.URL.String()}
	}

	return responseBytes, nil
}

// DoJSON sends the request and unmarshals a successful body into v.
func (c *Client) DoJSON(request *http.Request, v interface{}) error {
	responseBytes, err := c.Do(request)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(responseBytes, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
