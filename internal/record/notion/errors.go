package notion

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is the error object returned by the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion %d %s: %s", e.Status, e.Code, e.Message)
}

// checkResponse maps non-2xx responses to errors.
func checkResponse(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Status: res.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(res.StatusCode)
		apiErr.Message = string(b)
	}
	apiErr.Status = res.StatusCode

	switch res.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unauthorized: %w", apiErr)

	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited: %w", apiErr)

	default:
		return apiErr
	}
}
