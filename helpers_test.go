package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// tests skip the normal bootstrap (see init in main.go),
// so hand them a bare State with a plain client.
func init() {
	STATE = NewState()
	STATE.Client = &http.Client{}
}

// points the api and raw hosts at `server` for the duration of a test.
func intercept_hosts(t *testing.T, server *httptest.Server) {
	t.Helper()
	old_api, old_raw := API_URL, RAW_URL
	API_URL = server.URL
	RAW_URL = server.URL
	t.Cleanup(func() {
		API_URL = old_api
		RAW_URL = old_raw
	})
}
