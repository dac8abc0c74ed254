//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// GET performs a GET request against the test server.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodGet, path, nil, nil)
}

// POST performs a POST request with an optional JSON body.
func (env *TestEnv) POST(path string, body interface{}) *http.Response {
	env.t.Helper()
	return env.do(http.MethodPost, path, body, nil)
}

// POSTWithKey performs a POST carrying an Idempotency-Key header.
func (env *TestEnv) POSTWithKey(path string, body interface{}, key string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodPost, path, body, map[string]string{"Idempotency-Key": key})
}

// DELETE performs a DELETE request.
func (env *TestEnv) DELETE(path string) *http.Response {
	env.t.Helper()
	return env.do(http.MethodDelete, path, nil, nil)
}

func (env *TestEnv) do(method, path string, body interface{}, headers map[string]string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
