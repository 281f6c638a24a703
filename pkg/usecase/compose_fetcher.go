package usecase

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/odcsfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/odcsfetch/pkg/domain/model"
	"github.com/m-mizutani/odcsfetch/pkg/domain/types"
	"github.com/m-mizutani/odcsfetch/pkg/utils/fsutil"
	"github.com/m-mizutani/odcsfetch/pkg/utils/logging"
)

const (
	// DefaultFetchTimeout bounds a single compose download
	DefaultFetchTimeout = 10 * time.Second

	// ComposeFileSuffix marks a stored file as compose reference
	ComposeFileSuffix = ".repo"
)

type composeFetcher struct {
	client     interfaces.HTTPClient
	composeDir string
	timeout    time.Duration
	suffix     string
}

// FetcherOption is a functional option for ComposeFetcher
type FetcherOption func(*composeFetcher)

// WithFetchTimeout sets timeout applied to each compose download
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *composeFetcher) {
		f.timeout = timeout
	}
}

// WithFileSuffix overrides ComposeFileSuffix
func WithFileSuffix(suffix string) FetcherOption {
	return func(f *composeFetcher) {
		f.suffix = suffix
	}
}

// NewComposeFetcher creates a ComposeFetcher storing compose files into composeDir.
// client should be the network safety client from infra/safehttp in production.
func NewComposeFetcher(client interfaces.HTTPClient, composeDir string, opts ...FetcherOption) interfaces.ComposeFetcher {
	f := &composeFetcher{
		client:     client,
		composeDir: composeDir,
		timeout:    DefaultFetchTimeout,
		suffix:     ComposeFileSuffix,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads compose URLs one by one in request order and writes each
// response body into a new file in the compose directory. It stops at the
// first failure; files already written in this call are left in place.
// Bodies are stored byte for byte without charset conversion.
func (f *composeFetcher) Fetch(ctx context.Context, req model.RequestReference) (model.ResultReference, error) {
	logger := logging.From(ctx)

	if err := os.MkdirAll(f.composeDir, 0755); err != nil {
		return model.ResultReference{}, goerr.Wrap(err, "failed to create compose directory",
			goerr.V("compose_dir", f.composeDir),
		)
	}

	urls := req.ComposeURLs()
	logger.Info("Fetching compose",
		"compose_dir", f.composeDir,
		"url_count", len(urls),
	)

	files := make([]string, 0, len(urls))
	for _, url := range urls {
		body, err := f.download(ctx, url)
		if err != nil {
			logger.Error("Failed to download compose",
				"error", err,
				"url", url,
				"written_files", len(files),
			)
			return model.ResultReference{}, err
		}

		path, err := fsutil.WriteUnique(f.composeDir, "", f.suffix, body)
		if err != nil {
			return model.ResultReference{}, goerr.Wrap(err, "failed to store compose file",
				goerr.V("url", url),
				goerr.V("compose_dir", f.composeDir),
			)
		}

		logger.Debug("Stored compose file",
			"url", url,
			"path", path,
			"size_bytes", len(body),
		)
		files = append(files, path)
	}

	logger.Info("Fetched compose",
		"compose_dir", f.composeDir,
		"file_count", len(files),
	)

	return model.NewResultReference(f.composeDir, files...), nil
}

// download performs GET for url and returns the body of a 2xx response
func (f *composeFetcher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create compose request",
			goerr.V("url", url),
			goerr.T(types.ErrTagInvalidRequest),
		)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to request compose",
			goerr.V("url", url),
			goerr.T(types.ErrTagTransport),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerr.Wrap(&model.HTTPStatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
		}, "compose request failed",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.ErrTagHTTPStatus),
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read compose response",
			goerr.V("url", url),
			goerr.T(types.ErrTagTransport),
		)
	}

	return body, nil
}
