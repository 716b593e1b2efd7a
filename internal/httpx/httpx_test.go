package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientDo_DefaultHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(5*time.Second, "stocksync-test/1.0")
	c.Headers = map[string]string{"Accept": "application/json", "X-Extra": "default"}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("X-Extra", "explicit")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "stocksync-test/1.0", got.Get("User-Agent"))
	require.Equal(t, "application/json", got.Get("Accept"))
	require.Equal(t, "explicit", got.Get("X-Extra"))
}

func TestClientDo_KeepsRequestUserAgent(t *testing.T) {
	t.Parallel()

	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
	}))
	defer srv.Close()

	c := New(5*time.Second, "default-agent")
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom-agent")

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "custom-agent", ua)
}
