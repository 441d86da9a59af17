package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.trai.ch/protobuild/internal/core/domain"
)

// HTTPDoer is the part of *http.Client the HTTP sources use.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the client shared by every HTTP source.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// statusError maps an unsuccessful response to a typed fetch error.
func statusError(uri string, resp *http.Response) error {
	kind := domain.FetchUnreachable
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.FetchAuth
	case http.StatusNotFound, http.StatusGone:
		kind = domain.FetchRefNotFound
	}
	return domain.NewFetchError(kind, uri, fmt.Errorf("unexpected status %s", resp.Status))
}

func do(ctx context.Context, client HTTPDoer, method, uri string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, uri, nil)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}
	return resp, nil
}

// get performs a GET and returns the response only for 2xx statuses.
func get(ctx context.Context, client HTTPDoer, uri string) (*http.Response, error) {
	resp, err := do(ctx, client, http.MethodGet, uri)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, statusError(uri, resp)
	}
	return resp, nil
}

func getJSON(ctx context.Context, client HTTPDoer, uri string, v any) error {
	resp, err := get(ctx, client, uri)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // Body is fully consumed by the decoder

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return domain.NewFetchError(domain.FetchUnreachable, uri, fmt.Errorf("invalid JSON response: %w", err))
	}
	return nil
}

// download streams uri into w.
func download(ctx context.Context, client HTTPDoer, uri string, w io.Writer) error {
	resp, err := get(ctx, client, uri)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // Body is fully consumed by io.Copy

	if _, err := io.Copy(w, resp.Body); err != nil {
		return domain.NewFetchError(domain.FetchUnreachable, uri, err)
	}
	return nil
}

// exists probes uri with HEAD. A 404 reports false without error.
func exists(ctx context.Context, client HTTPDoer, uri string) (bool, error) {
	resp, err := do(ctx, client, http.MethodHead, uri)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	case resp.StatusCode == http.StatusMethodNotAllowed:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(uri, resp)
	}
}
