package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tartampluch/birthday-liberator/internal/config"
)

// ErrSourceStatus is returned when the export URL answers with anything but 200.
var ErrSourceStatus = errors.New(config.ErrFetchStatus)

// Fetcher retrieves a contact export from a remote location.
type Fetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// HTTPFetcher downloads CSV or vCard exports over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client

	// Limit caps the body size. Zero means config.MaxInputSize.
	Limit int64
}

// NewHTTPFetcher returns a fetcher with the default timeout and size limit.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: config.HTTPTimeout},
		Limit:  config.MaxInputSize,
	}
}

func (f *HTTPFetcher) limit() int64 {
	if f.Limit <= 0 {
		return config.MaxInputSize
	}
	return f.Limit
}

// Fetch starts the download of the export at exportURL. A body announced as
// larger than the limit is refused up front; a body that turns out larger
// while reading fails with ErrInputTooLarge on the read that crosses the limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, exportURL, user, pass string) (io.ReadCloser, error) {
	u, err := url.Parse(exportURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// The query string may carry an access token.
	log := slog.With(
		config.LogKeyComponent, config.CompFetcher,
		config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path,
	)
	log.Debug(config.MsgDownloadStart)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFetchRequest, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeAcceptExport)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFetchNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchStatus, config.LogKeyStatus, resp.StatusCode)
		return nil, fmt.Errorf("%w: %s", ErrSourceStatus, resp.Status)
	}

	limit := f.limit()
	if resp.ContentLength > limit {
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchTooLarge,
			config.LogKeyLength, resp.ContentLength,
			config.LogKeyLimit, limit,
		)
		return nil, fmt.Errorf("%w: %d bytes max", ErrInputTooLarge, limit)
	}

	log.Info(config.MsgDownloading, config.LogKeyLength, resp.ContentLength)

	return &exportBody{body: resp.Body, remaining: limit}, nil
}

// exportBody passes through at most remaining bytes and reports
// ErrInputTooLarge as soon as one more byte arrives.
type exportBody struct {
	body      io.ReadCloser
	remaining int64
}

func (b *exportBody) Read(p []byte) (int, error) {
	if b.remaining < 0 {
		return 0, ErrInputTooLarge
	}
	// One byte past the limit is enough to detect an oversized body.
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.body.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n - 1, ErrInputTooLarge
	}
	return n, err
}

func (b *exportBody) Close() error {
	return b.body.Close()
}
