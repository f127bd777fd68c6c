package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/carefollow/internal/common"
)

// APIError is a non-2xx backend reply. It unwraps to the sentinel matching
// its status, so callers use errors.Is(err, common.ErrNotFound) and so on.
type APIError struct {
	Status int
	Detail string
	kind   error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Detail)
}

func (e *APIError) Unwrap() error { return e.kind }

// NewAPIError builds the error for a reply with the given status and detail.
func NewAPIError(status int, detail string) *APIError {
	return &APIError{Status: status, Detail: detail, kind: statusKind(status)}
}

func statusKind(status int) error {
	switch status {
	case http.StatusBadRequest:
		return common.ErrBadRequest
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrConflict
	case http.StatusUnprocessableEntity:
		return common.ErrValidation
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return common.ErrTimeout
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return common.ErrUnavailable
	default:
		return nil
	}
}

// errorBody matches FastAPI replies: detail is a string for HTTPException
// and a list of objects for request validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := NewAPIError(resp.StatusCode, "")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		apiErr.Detail = s
	} else {
		apiErr.Detail = string(body.Detail)
	}
	return apiErr
}

// requestError turns a failed round trip into a transport error. Deadline
// expiry is a timeout, not an auth failure.
func requestError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s %s: request canceled: %w", method, path, context.Canceled)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", method, path, common.ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s %s: %w", method, path, common.ErrTimeout)
	}
	return fmt.Errorf("%s %s: %w: %v", method, path, common.ErrUnavailable, err)
}
