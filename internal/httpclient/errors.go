package httpclient

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// APIError is a non-2xx provider response. Code and Message are taken from
// the body when it is JSON in one of the common shapes.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Code         json.RawMessage `json:"code"`
	Message      string          `json:"message"`
	Error        json.RawMessage `json:"error"`
	ErrorID      string          `json:"errorId"`
	ErrorMessage string          `json:"errorMessage"`
}

// JSONErrorHandler turns any status >= 400 into an *APIError. It understands
// {code,message}, {errorId,errorMessage} and {error:{code,message}} bodies.
func JSONErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	return ParseAPIError(statusCode, body)
}

// ParseAPIError decodes body into an *APIError regardless of status.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = string(body)
		return apiErr
	}

	apiErr.Code = rawString(eb.Code)
	apiErr.Message = eb.Message
	if eb.ErrorID != "" {
		apiErr.Code = eb.ErrorID
	}
	if eb.ErrorMessage != "" {
		apiErr.Message = eb.ErrorMessage
	}
	if len(eb.Error) > 0 {
		var nested errorBody
		if json.Unmarshal(eb.Error, &nested) == nil {
			if c := rawString(nested.Code); c != "" && apiErr.Code == "" {
				apiErr.Code = c
			}
			if nested.Message != "" && apiErr.Message == "" {
				apiErr.Message = nested.Message
			}
		} else if apiErr.Message == "" {
			apiErr.Message = rawString(eb.Error)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	return apiErr
}

// rawString accepts a JSON string or number.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return strconv.Quote(string(raw))
}
