package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// UpdatePageRequest is the body of a page update. Property values are
// property-type objects such as {"number": 1.5} or {"date": {"start": "2026-10-18"}}.
type UpdatePageRequest struct {
	Properties map[string]any `json:"properties"`
}

// NumberValue builds a number property value. A nil v clears the property.
func NumberValue(v *float64) map[string]any {
	return map[string]any{"number": v}
}

// DateValue builds a date property value from an ISO-8601 date string. An
// empty start clears the date.
func DateValue(start string) map[string]any {
	if start == "" {
		return map[string]any{"date": nil}
	}
	return map[string]any{"date": map[string]any{"start": start}}
}

// UpdatePage updates the properties of a page.
func (c *NotionAPIClient) UpdatePage(ctx context.Context, pageID string, in UpdatePageRequest) (*Page, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding update: %w", err)
	}

	u := fmt.Sprintf("%s/v1/pages/%s", c.baseURL, url.PathEscape(pageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
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
		return nil, fmt.Errorf("updating page %s: %w", pageID, err)
	}

	var out Page
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding page response: %w", err)
	}
	return &out, nil
}
