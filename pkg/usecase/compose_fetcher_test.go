package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/odcsfetch/pkg/domain/model"
	"github.com/m-mizutani/odcsfetch/pkg/domain/types"
	"github.com/m-mizutani/odcsfetch/pkg/usecase"
)

// MockHTTPClient is a mock implementation of HTTPClient
type MockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
	calls  []string
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.calls = append(m.calls, req.URL.String())
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return nil, errors.New("mock not configured")
}

// newComposeServer serves path -> body. Paths starting with /fail respond 500.
func newComposeServer(t *testing.T, bodies map[string]string) (*httptest.Server, *requestLog) {
	requested := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.add(r.URL.Path)

		if strings.HasPrefix(r.URL.Path, "/fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, requested
}

// requestLog records request paths received by the test server
type requestLog struct {
	m     sync.Mutex
	paths []string
}

func (l *requestLog) add(path string) {
	l.m.Lock()
	defer l.m.Unlock()
	l.paths = append(l.paths, path)
}

func (l *requestLog) get() []string {
	l.m.Lock()
	defer l.m.Unlock()
	return append([]string(nil), l.paths...)
}

func listRepoFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	gt.NoError(t, err).Required()

	var files []string
	for _, entry := range entries {
		gt.Value(t, entry.IsDir()).Equal(false)
		gt.Value(t, strings.HasSuffix(entry.Name(), ".repo")).Equal(true)
		files = append(files, entry.Name())
	}
	return files
}

func TestComposeFetcher_Fetch_Success(t *testing.T) {
	ctx := context.Background()
	server, _ := newComposeServer(t, map[string]string{
		"/a.repo": "A",
		"/b.repo": "B",
	})
	composeDir := filepath.Join(t.TempDir(), "compose")

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir)
	result, err := fetcher.Fetch(ctx, model.NewRequestReference(
		server.URL+"/a.repo",
		server.URL+"/b.repo",
	))
	gt.NoError(t, err).Required()

	gt.Value(t, result.ComposeDirPath()).Equal(composeDir)
	gt.A(t, listRepoFiles(t, composeDir)).Length(2)

	// File-to-URL mapping follows creation order
	files := result.ComposeFiles()
	gt.A(t, files).Length(2)
	for i, want := range []string{"A", "B"} {
		gt.Value(t, filepath.Dir(files[i])).Equal(composeDir)
		data, err := os.ReadFile(files[i])
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal(want)
	}
}

func TestComposeFetcher_Fetch_FailureStopsProcessing(t *testing.T) {
	ctx := context.Background()
	server, requested := newComposeServer(t, map[string]string{
		"/a.repo": "A",
		"/b.repo": "B",
		"/c.repo": "C",
	})
	composeDir := t.TempDir()

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir)
	failURL := server.URL + "/fail.repo"
	_, err := fetcher.Fetch(ctx, model.NewRequestReference(
		server.URL+"/a.repo",
		server.URL+"/b.repo",
		failURL,
		server.URL+"/c.repo",
	))
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.ErrTagHTTPStatus)).Equal(true)

	var statusErr *model.HTTPStatusError
	gt.Value(t, errors.As(err, &statusErr)).Equal(true)
	gt.Value(t, statusErr.URL).Equal(failURL)
	gt.Number(t, statusErr.StatusCode).Equal(http.StatusInternalServerError)

	// Files from URLs before the failure stay, the URL after it is never requested
	gt.A(t, listRepoFiles(t, composeDir)).Length(2)
	gt.Value(t, requested.get()).Equal([]string{"/a.repo", "/b.repo", "/fail.repo"})
}

func TestComposeFetcher_Fetch_NotFound(t *testing.T) {
	ctx := context.Background()
	server, _ := newComposeServer(t, map[string]string{})
	composeDir := t.TempDir()

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir)
	_, err := fetcher.Fetch(ctx, model.NewRequestReference(server.URL+"/missing.repo"))
	gt.Error(t, err)

	var statusErr *model.HTTPStatusError
	gt.Value(t, errors.As(err, &statusErr)).Equal(true)
	gt.Number(t, statusErr.StatusCode).Equal(http.StatusNotFound)
	gt.A(t, listRepoFiles(t, composeDir)).Length(0)
}

func TestComposeFetcher_Fetch_Accumulates(t *testing.T) {
	ctx := context.Background()
	server, _ := newComposeServer(t, map[string]string{"/a.repo": "A"})
	composeDir := t.TempDir()

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir)
	req := model.NewRequestReference(server.URL + "/a.repo")

	first, err := fetcher.Fetch(ctx, req)
	gt.NoError(t, err).Required()
	second, err := fetcher.Fetch(ctx, req)
	gt.NoError(t, err).Required()

	gt.Value(t, first.ComposeFiles()[0]).NotEqual(second.ComposeFiles()[0])
	gt.A(t, listRepoFiles(t, composeDir)).Length(2)
}

func TestComposeFetcher_Fetch_EmptyRequest(t *testing.T) {
	ctx := context.Background()
	composeDir := filepath.Join(t.TempDir(), "nested", "compose")
	mockClient := &MockHTTPClient{}

	fetcher := usecase.NewComposeFetcher(mockClient, composeDir)
	result, err := fetcher.Fetch(ctx, model.NewRequestReference())
	gt.NoError(t, err).Required()

	gt.Value(t, result.ComposeDirPath()).Equal(composeDir)
	gt.A(t, result.ComposeFiles()).Length(0)
	gt.A(t, mockClient.calls).Length(0)

	info, err := os.Stat(composeDir)
	gt.NoError(t, err).Required()
	gt.Value(t, info.IsDir()).Equal(true)
	gt.A(t, listRepoFiles(t, composeDir)).Length(0)
}

func TestComposeFetcher_Fetch_ExistingDirectory(t *testing.T) {
	ctx := context.Background()
	server, _ := newComposeServer(t, map[string]string{"/a.repo": "A"})
	composeDir := t.TempDir()

	// Pre-existing files are neither touched nor counted as errors
	gt.NoError(t, os.WriteFile(filepath.Join(composeDir, "old.repo"), []byte("old"), 0600)).Required()

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir)
	_, err := fetcher.Fetch(ctx, model.NewRequestReference(server.URL+"/a.repo"))
	gt.NoError(t, err).Required()

	gt.A(t, listRepoFiles(t, composeDir)).Length(2)
	data, err := os.ReadFile(filepath.Join(composeDir, "old.repo"))
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("old")
}

func TestComposeFetcher_Fetch_TransportError(t *testing.T) {
	ctx := context.Background()
	composeDir := t.TempDir()
	mockClient := &MockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
	}

	fetcher := usecase.NewComposeFetcher(mockClient, composeDir)
	_, err := fetcher.Fetch(ctx, model.NewRequestReference(
		"https://example.com/a.repo",
		"https://example.com/b.repo",
	))
	gt.Error(t, err)
	gt.Value(t, goerr.HasTag(err, types.ErrTagTransport)).Equal(true)
	gt.Value(t, goerr.HasTag(err, types.ErrTagHTTPStatus)).Equal(false)
	gt.String(t, err.Error()).Contains("connection refused")

	gt.A(t, mockClient.calls).Length(1)
	gt.A(t, listRepoFiles(t, composeDir)).Length(0)
}

func TestComposeFetcher_Fetch_Timeout(t *testing.T) {
	ctx := context.Background()
	composeDir := t.TempDir()
	mockClient := &MockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		},
	}

	fetcher := usecase.NewComposeFetcher(mockClient, composeDir,
		usecase.WithFetchTimeout(10*time.Millisecond),
	)
	_, err := fetcher.Fetch(ctx, model.NewRequestReference("https://example.com/a.repo"))
	gt.Error(t, err)
	gt.Value(t, errors.Is(err, context.DeadlineExceeded)).Equal(true)
	gt.Value(t, goerr.HasTag(err, types.ErrTagTransport)).Equal(true)
}

func TestComposeFetcher_Fetch_FileSuffix(t *testing.T) {
	ctx := context.Background()
	server, _ := newComposeServer(t, map[string]string{"/a.repo": "A"})
	composeDir := t.TempDir()

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir,
		usecase.WithFileSuffix(".compose"),
	)
	result, err := fetcher.Fetch(ctx, model.NewRequestReference(server.URL+"/a.repo"))
	gt.NoError(t, err).Required()
	gt.Value(t, strings.HasSuffix(result.ComposeFiles()[0], ".compose")).Equal(true)
}

func TestComposeFetcher_Fetch_DirectoryCreationError(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	gt.NoError(t, os.WriteFile(blocker, []byte("x"), 0600)).Required()

	mockClient := &MockHTTPClient{}
	fetcher := usecase.NewComposeFetcher(mockClient, filepath.Join(blocker, "compose"))
	_, err := fetcher.Fetch(ctx, model.NewRequestReference("https://example.com/a.repo"))
	gt.Error(t, err)
	gt.A(t, mockClient.calls).Length(0)
}

func TestComposeFetcher_Fetch_StoresBodyVerbatim(t *testing.T) {
	ctx := context.Background()
	// Latin-1 encoded "café" followed by CRLF, not valid UTF-8
	body := []byte{'c', 'a', 'f', 0xe9, '\r', '\n'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	composeDir := t.TempDir()

	fetcher := usecase.NewComposeFetcher(server.Client(), composeDir)
	result, err := fetcher.Fetch(ctx, model.NewRequestReference(server.URL+"/latin1.repo"))
	gt.NoError(t, err).Required()

	data, err := os.ReadFile(result.ComposeFiles()[0])
	gt.NoError(t, err).Required()
	gt.Value(t, data).Equal(body)
}
