package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
)

// a resource that isn't there (or that the upstream refuses to serve for any
// reason other than throttling). callers treat this as "absent", not as a
// reason to stop.
var err_not_found = errors.New("not found")

// the upstream has started rejecting requests for this run.
// fatal: workers stop claiming new work once any of them sees this.
var err_rate_limited = errors.New("rate limited")

type ResponseWrapper struct {
	*http.Response
	Text string
}

// client trace to log whether the request's underlying tcp connection was re-used
func trace_context() context.Context {
	client_tracer := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			slog.Debug("HTTP connection reuse", "reused", info.Reused, "remote", info.Conn.RemoteAddr())
		},
	}
	return httptrace.WithClientTrace(context.Background(), client_tracer)
}

func download(url string, headers map[string]string) (ResponseWrapper, error) {
	slog.Debug("HTTP GET", "url", url)
	empty_response := ResponseWrapper{}

	// ---

	req, err := http.NewRequestWithContext(trace_context(), http.MethodGet, url, nil)
	if err != nil {
		return empty_response, fmt.Errorf("failed to create request: %w", err)
	}
	for header, header_val := range headers {
		req.Header.Set(header, header_val)
	}

	// ---

	client := STATE.Client
	resp, err := client.Do(req)
	if err != nil {
		return empty_response, fmt.Errorf("failed to fetch '%s': %w", url, err)
	}
	defer resp.Body.Close()

	// ---

	content_bytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty_response, fmt.Errorf("failed to read response body: %w", err)
	}

	return ResponseWrapper{
		Response: resp,
		Text:     string(content_bytes),
	}, nil
}

// maps a http status to one of the two error kinds.
// 403 and 429 are both used by Github to signal throttling.
func classify(resp ResponseWrapper) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == 403 || resp.StatusCode == 429 {
		slog.Debug("rate limited", "status", resp.StatusCode)
		return err_rate_limited
	}
	return err_not_found
}

// headers for structured Github API requests.
// the token is optional, unauthenticated runs just get a smaller rate limit.
func github_headers() map[string]string {
	headers := map[string]string{
		"Accept": "application/vnd.github+json",
	}
	if STATE.GithubToken != "" {
		headers["Authorization"] = "Bearer " + STATE.GithubToken
	}
	return headers
}

func auth_headers() map[string]string {
	headers := map[string]string{}
	if STATE.GithubToken != "" {
		headers["Authorization"] = "Bearer " + STATE.GithubToken
	}
	return headers
}

// fetches a Github API resource, returning the raw JSON body.
// no retries: a throttled response kills the whole run instead.
func fetch_json(url string) (string, error) {
	resp, err := download(url, github_headers())
	if err != nil {
		return "", err
	}
	err = classify(resp)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// fetches a plain (non-API) resource like a raw.githubusercontent.com file.
func fetch_text(url string) (string, error) {
	resp, err := download(url, auth_headers())
	if err != nil {
		return "", err
	}
	err = classify(resp)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
