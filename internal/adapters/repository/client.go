// Package repository uploads package archives to a package repository server.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// HTTPDoer is the part of *http.Client the repository client uses.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// VersionHandle is returned by the server when a new version is registered.
type VersionHandle struct {
	UploadURL   string `json:"uploadUrl"`
	FinalizeURL string `json:"finalizeUrl"`
}

// Acknowledgement is the result body of finalize and branch edit calls.
type Acknowledgement struct {
	Message string `json:"message,omitempty"`
}

// Client implements ports.Repository over the two-phase upload protocol.
type Client struct {
	http     HTTPDoer
	archiver ports.Archiver
	logger   ports.Logger
}

var _ ports.Repository = (*Client)(nil)

// NewClient creates a repository client.
func NewClient(client HTTPDoer, archiver ports.Archiver, logger ports.Logger) *Client {
	return &Client{http: client, archiver: archiver, logger: logger}
}

// Push registers a new version, uploads the archive, finalizes it and moves the branch to it.
func (c *Client) Push(ctx context.Context, req ports.PushRequest) error {
	format, err := c.archiver.Detect(req.ArchivePath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(req.ArchivePath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", req.ArchivePath)
	}

	c.logger.Info(fmt.Sprintf("registering version %s for %s", req.Version, req.Platform))
	handle, err := postForm[VersionHandle](ctx, c.http, endpoint(req.RepositoryURL, "api", "version", "new"), url.Values{
		"__apikey": {req.APIKey},
		"version":  {req.Version},
		"platform": {req.Platform},
	})
	if err != nil {
		return err
	}
	if handle.UploadURL == "" || handle.FinalizeURL == "" {
		return zerr.Wrap(domain.ErrPushFailed, "server did not return upload and finalize URLs")
	}

	c.logger.Info(fmt.Sprintf("uploading %s (%d bytes)", req.ArchivePath, len(data)))
	if err := c.upload(ctx, handle.UploadURL, data); err != nil {
		return err
	}

	if _, err := postForm[Acknowledgement](ctx, c.http, handle.FinalizeURL, url.Values{
		"__apikey": {req.APIKey},
		"format":   {string(format)},
	}); err != nil {
		return err
	}

	if req.Branch == "" {
		return nil
	}
	return c.Repush(ctx, ports.RepushRequest{
		RepositoryURL: req.RepositoryURL,
		APIKey:        req.APIKey,
		Version:       req.Version,
		Branch:        req.Branch,
	})
}

// Repush points a branch at an already uploaded version.
func (c *Client) Repush(ctx context.Context, req ports.RepushRequest) error {
	c.logger.Info(fmt.Sprintf("updating branch %s to version %s", req.Branch, req.Version))
	_, err := postForm[Acknowledgement](ctx, c.http, endpoint(req.RepositoryURL, "api", "branch", "edit", req.Branch), url.Values{
		"__apikey": {req.APIKey},
		"version":  {req.Version},
	})
	return err
}

func (c *Client) upload(ctx context.Context, uploadURL string, data []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return zerr.Wrap(err, domain.ErrPushFailed.Error())
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.ContentLength = int64(len(data))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPushFailed.Error()), "url", uploadURL)
	}
	defer resp.Body.Close() //nolint:errcheck // Body is drained below

	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zerr.With(zerr.Wrap(domain.ErrPushFailed, "upload rejected with "+resp.Status), "url", uploadURL)
	}
	return nil
}

// postForm posts a form and decodes the tagged result envelope.
func postForm[T any](ctx context.Context, client HTTPDoer, target string, form url.Values) (*T, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrPushFailed.Error())
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPushFailed.Error()), "url", target)
	}
	defer resp.Body.Close() //nolint:errcheck // Body is fully consumed by the decoder

	var result domain.Result[T]
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, zerr.With(zerr.Wrap(domain.ErrPushFailed, "request failed with "+resp.Status), "url", target)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRepositoryResponse.Error()), "url", target)
	}
	return result.Unwrap()
}

func endpoint(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(escaped, "/")
}
