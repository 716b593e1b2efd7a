package notion_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	notion "stocksync/internal/record/notion"
)

func TestNewNotionAPIClient(t *testing.T) {
	t.Parallel()

	// Assert: a valid token should return a client.
	client, err := notion.NewNotionAPIClient("secret_test")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestDefaultHeaders(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method to check auth and version headers
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "Bearer secret_test", req.Header.Get("Authorization"))
			require.Equal(t, "2022-06-28", req.Header.Get("Notion-Version"))
			require.Equal(t, "application/json", req.Header.Get("Content-Type"))
			return jsonResponse(t, http.StatusOK, map[string]any{"results": []any{}, "has_more": false}), nil
		}).
		Times(1)

	// Arrange: create a new client with a custom HTTP client.
	client, err := notion.NewNotionAPIClient("secret_test", notion.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call QueryDatabase.
	_, err = client.QueryDatabase(t.Context(), "db", notion.QueryDatabaseRequest{})
	require.NoError(t, err)
}

func TestWithBaseURLAndVersion(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			require.Equal(t, "2025-09-03", req.Header.Get("Notion-Version"))
			return jsonResponse(t, http.StatusOK, map[string]any{"results": []any{}, "has_more": false}), nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := notion.NewNotionAPIClient("secret_test",
		notion.WithHTTPClient(httpClient),
		notion.WithBaseURL(baseURL),
		notion.WithVersion("2025-09-03"),
	)
	require.NoError(t, err)

	// Act: call QueryDatabase with the overridden base URL.
	_, err = client.QueryDatabase(t.Context(), "db", notion.QueryDatabaseRequest{})
	require.NoError(t, err)
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method to check the custom header
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(t, http.StatusOK, map[string]any{"id": "page"}), nil
		}).
		Times(1)

	// Arrange: create a new client with a custom header.
	client, err := notion.NewNotionAPIClient("secret_test", notion.WithHTTPClient(httpClient), notion.WithHeader(http.Header{
		"foo": []string{"bar"},
	}))
	require.NoError(t, err)

	// Act: call UpdatePage with the custom header.
	_, err = client.UpdatePage(t.Context(), "page", notion.UpdatePageRequest{})
	require.NoError(t, err)
}

// jsonResponse encodes body as a JSON response with the given status.
func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(body))
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(buffer),
	}
}
