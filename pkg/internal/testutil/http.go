// Package testutil provides shared test doubles for the reviewer system.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPDoer implements github.HTTPDoer for testing.
// It's programmable - you can configure responses for specific requests.
type MockHTTPDoer struct {
	responses map[string]mockResponse
	errors    map[string]error
	calls     []HTTPCall
	mu        sync.RWMutex
}

type mockResponse struct {
	body       []byte
	header     http.Header
	statusCode int
}

// HTTPCall records a single HTTP call.
type HTTPCall struct {
	Method string
	URL    string
	Body   []byte
}

// NewMockHTTPDoer creates a new MockHTTPDoer.
func NewMockHTTPDoer() *MockHTTPDoer {
	return &MockHTTPDoer{
		responses: make(map[string]mockResponse),
		errors:    make(map[string]error),
	}
}

// Do executes the HTTP request and returns the configured response.
// Unconfigured requests get a 404.
func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	m.calls = append(m.calls, HTTPCall{
		Method: req.Method,
		URL:    req.URL.String(),
		Body:   body,
	})

	key := makeKey(req.Method, req.URL.String())

	if err, ok := m.errors[key]; ok {
		return nil, err
	}

	if resp, ok := m.responses[key]; ok {
		header := resp.header
		if header == nil {
			header = make(http.Header)
		}
		return &http.Response{
			StatusCode: resp.statusCode,
			Status:     fmt.Sprintf("%d %s", resp.statusCode, http.StatusText(resp.statusCode)),
			Body:       io.NopCloser(bytes.NewReader(resp.body)),
			Header:     header,
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"message":"not found"}`)),
		Header:     make(http.Header),
	}, nil
}

// SetResponse configures a JSON response for a specific method and URL.
func (m *MockHTTPDoer) SetResponse(method, url string, statusCode int, body any) {
	m.SetResponseWithHeader(method, url, statusCode, body, nil)
}

// SetResponseWithHeader configures a JSON response with custom headers.
func (m *MockHTTPDoer) SetResponseWithHeader(method, url string, statusCode int, body any, header http.Header) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			panic(fmt.Sprintf("failed to marshal response body: %v", err))
		}
	}

	m.responses[makeKey(method, url)] = mockResponse{
		statusCode: statusCode,
		body:       bodyBytes,
		header:     header,
	}
}

// SetError configures a transport error for a specific method and URL.
func (m *MockHTTPDoer) SetError(method, url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[makeKey(method, url)] = err
}

// Calls returns all recorded HTTP calls.
func (m *MockHTTPDoer) Calls() []HTTPCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]HTTPCall(nil), m.calls...)
}

// CallCount returns the number of recorded calls matching method and URL.
func (m *MockHTTPDoer) CallCount(method, url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, call := range m.calls {
		if call.Method == method && call.URL == url {
			count++
		}
	}
	return count
}

func makeKey(method, url string) string {
	return method + " " + url
}
