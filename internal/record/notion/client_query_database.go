package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Page is a database row. Properties are kept raw because their shape
// depends on the property type.
type Page struct {
	ID         string          `json:"id"`
	Archived   bool            `json:"archived"`
	Properties json.RawMessage `json:"properties"`
}

// QueryDatabaseRequest is the body of a database query.
type QueryDatabaseRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// QueryDatabaseResponse is one page of query results.
type QueryDatabaseResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryDatabase retrieves one page of rows of a database.
func (c *NotionAPIClient) QueryDatabase(ctx context.Context, databaseID string, in QueryDatabaseRequest) (*QueryDatabaseResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	u := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, url.PathEscape(databaseID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if err := checkResponse(res); err != nil {
		return nil, fmt.Errorf("querying database %s: %w", databaseID, err)
	}

	var out QueryDatabaseResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return &out, nil
}
