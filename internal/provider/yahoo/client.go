package yahoo

import (
	"net/http"
	"net/url"
)

// baseURL is the default host of the public chart API.
const baseURL = "https://query1.finance.yahoo.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChartAPIClient is a client for the Yahoo Finance chart API.
type ChartAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// ChartAPIClientOption is a configuration option for the chart API client.
type ChartAPIClientOption func(*ChartAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ChartAPIClientOption {
	return func(c *ChartAPIClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ChartAPIClientOption {
	return func(c *ChartAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ChartAPIClientOption {
	return func(c *ChartAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithQuery sets additional query parameters to be sent with each request.
func WithQuery(query url.Values) ChartAPIClientOption {
	return func(c *ChartAPIClient) {
		for key, values := range query {
			for _, value := range values {
				c.query.Add(key, value)
			}
		}
	}
}

// NewChartAPIClient creates a new chart API client.
func NewChartAPIClient(options ...ChartAPIClientOption) (*ChartAPIClient, error) {
	var chartAPIClient = &ChartAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	// The chart endpoint rejects requests without a JSON accept header on some edges.
	chartAPIClient.header.Set("Accept", "application/json")
	for _, option := range options {
		option(chartAPIClient)
	}
	return chartAPIClient, nil
}
