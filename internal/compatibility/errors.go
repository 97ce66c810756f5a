package compatibility

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Category classifies a failed request
type Category string

const (
	CategoryAuth             Category = "authentication_failure"
	CategoryModelNotFound    Category = "model_not_found"
	CategoryEndpointNotFound Category = "endpoint_not_found"
	CategoryRateLimit        Category = "rate_limit"
	CategoryOverloaded       Category = "overloaded"
	CategoryBadRequest       Category = "invalid_request"
	CategoryFormat           Category = "format_incompatibility"
	CategoryNetwork          Category = "network_error"
	CategoryServer           Category = "server_error"
	CategoryUnknown          Category = "unknown_error"
)

var categoryMessages = map[Category]string{
	CategoryAuth:             "Authentication failed, check ANTHROPIC_AUTH_TOKEN",
	CategoryModelNotFound:    "Model not found, check the model env values",
	CategoryEndpointNotFound: "Endpoint not found, check ANTHROPIC_BASE_URL",
	CategoryRateLimit:        "Rate limited, try again later",
	CategoryOverloaded:       "Provider is overloaded, try again later",
	CategoryBadRequest:       "Request rejected by the provider",
	CategoryFormat:           "Response is not in Messages API format",
	CategoryNetwork:          "Could not reach the endpoint",
	CategoryServer:           "Provider returned a server error",
	CategoryUnknown:          "Unexpected response from the provider",
}

// anthropic error.type values
var errorTypes = map[string]Category{
	"authentication_error": CategoryAuth,
	"permission_error":     CategoryAuth,
	"rate_limit_error":     CategoryRateLimit,
	"overloaded_error":     CategoryOverloaded,
	"api_error":            CategoryServer,
}

// Message returns the user facing text for a category
func (c Category) Message() string {
	if msg, ok := categoryMessages[c]; ok {
		return msg
	}
	return categoryMessages[CategoryUnknown]
}

// Categorize classifies a non-200 response. The error.type of an Anthropic
// style error body wins over the status code when it is recognised.
func Categorize(status int, body []byte) Category {
	errType := gjson.GetBytes(body, "error.type").String()
	if c, ok := errorTypes[errType]; ok {
		return c
	}

	lower := strings.ToLower(string(body))
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CategoryAuth
	case status == http.StatusNotFound, errType == "not_found_error":
		if strings.Contains(lower, "model") {
			return CategoryModelNotFound
		}
		return CategoryEndpointNotFound
	case status == http.StatusTooManyRequests:
		return CategoryRateLimit
	case status == http.StatusBadRequest:
		// 很多代理把未知模型报成 400
		if strings.Contains(lower, "model") {
			return CategoryModelNotFound
		}
		return CategoryBadRequest
	case status == http.StatusOK:
		return CategoryFormat
	case status == 529:
		return CategoryOverloaded
	case status >= http.StatusInternalServerError:
		return CategoryServer
	}
	return CategoryUnknown
}

// blocking reports whether the category means the provider is unusable as
// configured, as opposed to a transient condition.
func (c Category) blocking() bool {
	switch c {
	case CategoryAuth, CategoryModelNotFound, CategoryEndpointNotFound, CategoryBadRequest, CategoryFormat, CategoryUnknown:
		return true
	}
	return false
}

// errorDetail pulls error.message out of an error body
func errorDetail(body []byte) string {
	return gjson.GetBytes(body, "error.message").String()
}
