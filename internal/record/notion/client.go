package notion

import (
	"net/http"
)

const (
	// baseURL is the public Notion API host.
	baseURL = "https://api.notion.com"
	// defaultVersion is the Notion-Version header sent with each request.
	defaultVersion = "2022-06-28"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=notion_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NotionAPIClient is a client for the Notion REST API.
type NotionAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// NotionAPIClientOption is a configuration option for the Notion API client.
type NotionAPIClientOption func(*NotionAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) NotionAPIClientOption {
	return func(c *NotionAPIClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) NotionAPIClientOption {
	return func(c *NotionAPIClient) {
		c.httpClient = httpClient
	}
}

// WithVersion overrides the Notion-Version header.
func WithVersion(version string) NotionAPIClientOption {
	return func(c *NotionAPIClient) {
		if version != "" {
			c.header.Set("Notion-Version", version)
		}
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) NotionAPIClientOption {
	return func(c *NotionAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewNotionAPIClient creates a new Notion API client authenticated with an
// internal integration token.
func NewNotionAPIClient(token string, options ...NotionAPIClientOption) (*NotionAPIClient, error) {
	var notionAPIClient = &NotionAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	if token != "" {
		// https://developers.notion.com/reference/authentication
		notionAPIClient.header.Set("Authorization", "Bearer "+token)
	}
	notionAPIClient.header.Set("Notion-Version", defaultVersion)
	notionAPIClient.header.Set("Content-Type", "application/json")
	for _, option := range options {
		option(notionAPIClient)
	}
	return notionAPIClient, nil
}
