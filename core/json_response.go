package core

import (
	"encoding/json"
	"net/http"
)

// JSONResponse is the standard JSON envelope for API responses.
type JSONResponse struct {
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a 200 JSON response.
func JSON(code string, data any) Response {
	return jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Code: code, Data: data},
	}
}

// JSONStatus creates a JSON response with an explicit status code.
func JSONStatus(status int, code string, data any) Response {
	return jsonResponse{
		status: status,
		body:   JSONResponse{Code: code, Data: data},
	}
}

// JSONError creates a JSON error response. HTTPError values keep their
// status code and key; anything else renders as a 500.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{
		Code:    "internal_error",
		Message: err.Error(),
	}

	var httpErr HTTPError
	if ok := asHTTPError(err, &httpErr); ok {
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}

	return jsonResponse{
		status: status,
		body:   JSONResponse{Code: detail.Code, Error: detail},
	}
}
